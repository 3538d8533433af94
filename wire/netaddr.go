// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// NetAddr is the 26-byte wire form of a peer address: services, a 16-byte
// IP and a port. IPv4 addresses travel as IPv4-mapped IPv6 and are
// unwrapped back to IPv4 on decode. The port is big-endian on the wire
// while every other multi-byte body field is little-endian.
type NetAddr struct {
	Services uint64
	IP       net.IP
	Port     uint16
}

// NetAddrFromTCP builds a NetAddr from a TCP endpoint.
func NetAddrFromTCP(addr *net.TCPAddr, services uint64) NetAddr {
	return NetAddr{
		Services: services,
		IP:       addr.IP,
		Port:     uint16(addr.Port),
	}
}

// TCPAddr converts back to a net.TCPAddr.
func (na NetAddr) TCPAddr() *net.TCPAddr {
	return &net.TCPAddr{IP: na.IP, Port: int(na.Port)}
}

func (na NetAddr) String() string {
	return fmt.Sprintf("%s (services %d)", na.TCPAddr().String(), na.Services)
}

// Equal reports whether two addresses are the same endpoint with the
// same service bits, regardless of the IP representation in memory.
func (na NetAddr) Equal(other NetAddr) bool {
	return na.Services == other.Services &&
		na.IP.Equal(other.IP) &&
		na.Port == other.Port
}

// writeNetAddr serializes na. A nil IP is written as the all-zero
// address.
func writeNetAddr(w io.Writer, na NetAddr) error {
	if err := binary.Write(w, binary.LittleEndian, na.Services); err != nil {
		return err
	}

	var octets [16]byte
	if ip := na.IP.To16(); ip != nil {
		copy(octets[:], ip)
	}
	if _, err := w.Write(octets[:]); err != nil {
		return err
	}

	return binary.Write(w, binary.BigEndian, na.Port)
}

// readNetAddr is the strict mirror of writeNetAddr.
func readNetAddr(r io.Reader) (NetAddr, error) {
	var na NetAddr

	if err := binary.Read(r, binary.LittleEndian, &na.Services); err != nil {
		return na, err
	}

	var octets [16]byte
	if _, err := io.ReadFull(r, octets[:]); err != nil {
		return na, err
	}

	ip := make(net.IP, net.IPv6len)
	copy(ip, octets[:])
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	na.IP = ip

	err := binary.Read(r, binary.BigEndian, &na.Port)
	return na, err
}

// TimestampedAddr is one entry of an addr message: the address plus the
// last time the advertising peer saw it, in unix seconds.
type TimestampedAddr struct {
	Time uint32
	Addr NetAddr
}
