// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package p2p

import (
	"math/rand"
	"sync"
)

const noncesCap = 100

// nonceList remembers the version nonces this node sent recently, so a
// connection looping back to ourselves can be detected when our own
// nonce comes back in a peer's version message.
type nonceList struct {
	mu   sync.Mutex
	idx  int
	list []uint64
}

func newNonceList() *nonceList {
	return &nonceList{list: make([]uint64, 0, noncesCap)}
}

// next generates a fresh nonce and records it in the ring.
func (n *nonceList) next() uint64 {
	nonce := rand.Uint64()

	n.mu.Lock()
	if len(n.list) < noncesCap {
		n.list = append(n.list, nonce)
	} else {
		n.list[n.idx] = nonce
		n.idx = (n.idx + 1) % noncesCap
	}
	n.mu.Unlock()

	return nonce
}

// contains reports whether nonce was recently issued by this node.
func (n *nonceList) contains(nonce uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, v := range n.list {
		if nonce == v {
			return true
		}
	}

	return false
}
