package bimap

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"runtime"
	"sync"
	"weak"
)

// pair links two weak pointers. A pair is either live, i.e. present in both
// directional maps, or dead.
type pair[A, B any] struct {
	a      weak.Pointer[A]
	b      weak.Pointer[B]
	ca, cb runtime.Cleanup
	dead   bool
}

// graveyard collects pairings with a collected side. It is filled by cleanup
// functions, which run on a runtime goroutine, and drained by map operations.
type graveyard[A, B any] struct {
	mx    sync.Mutex
	pairs []*pair[A, B]
}

func (g *graveyard[A, B]) bury(p *pair[A, B]) {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.pairs = append(g.pairs, p)
}

func (g *graveyard[A, B]) exhume() []*pair[A, B] {
	g.mx.Lock()
	defer g.mx.Unlock()
	pp := g.pairs
	g.pairs = nil
	return pp
}

// WeakBiMap is a bidirectional one-to-one map between *A and *B.
// The zero value is not usable, create maps with New.
// All operations are serialized by a single mutex.
type WeakBiMap[A, B any] struct {
	mx    sync.Mutex
	byA   map[weak.Pointer[A]]*pair[A, B]
	byB   map[weak.Pointer[B]]*pair[A, B]
	grave *graveyard[A, B]
}

// New creates an empty map.
func New[A, B any]() *WeakBiMap[A, B] {
	return &WeakBiMap[A, B]{
		byA:   make(map[weak.Pointer[A]]*pair[A, B]),
		byB:   make(map[weak.Pointer[B]]*pair[A, B]),
		grave: &graveyard[A, B]{},
	}
}

// Associate pairs a and b. Existing pairings of either a or b are removed first.
// Associate panics if a or b is nil.
func (m *WeakBiMap[A, B]) Associate(a *A, b *B) {
	if a == nil || b == nil {
		panic("bimap: cannot associate nil")
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	m.drain()
	ka, kb := weak.Make(a), weak.Make(b)
	if p, ok := m.byA[ka]; ok {
		if p.b == kb {
			return
		}
		m.remove(p)
	}
	if p, ok := m.byB[kb]; ok {
		m.remove(p)
	}
	p := &pair[A, B]{a: ka, b: kb}
	grave := m.grave
	p.ca = runtime.AddCleanup(a, grave.bury, p)
	p.cb = runtime.AddCleanup(b, grave.bury, p)
	m.byA[ka] = p
	m.byB[kb] = p
}

// ByA returns the counterpart of a, or nil.
func (m *WeakBiMap[A, B]) ByA(a *A) *B {
	if a == nil {
		return nil
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	m.drain()
	p, ok := m.byA[weak.Make(a)]
	if !ok {
		return nil
	}
	b := p.b.Value()
	if b == nil {
		m.remove(p)
	}
	return b
}

// ByB returns the counterpart of b, or nil.
func (m *WeakBiMap[A, B]) ByB(b *B) *A {
	if b == nil {
		return nil
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	m.drain()
	p, ok := m.byB[weak.Make(b)]
	if !ok {
		return nil
	}
	a := p.a.Value()
	if a == nil {
		m.remove(p)
	}
	return a
}

// ContainsA is a predicate: is a part of a live pairing?
func (m *WeakBiMap[A, B]) ContainsA(a *A) bool {
	return m.ByA(a) != nil
}

// ContainsB is a predicate: is b part of a live pairing?
func (m *WeakBiMap[A, B]) ContainsB(b *B) bool {
	return m.ByB(b) != nil
}

// RemoveByA removes the pairing of a and returns its former counterpart, if any.
func (m *WeakBiMap[A, B]) RemoveByA(a *A) *B {
	if a == nil {
		return nil
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	m.drain()
	p, ok := m.byA[weak.Make(a)]
	if !ok {
		return nil
	}
	m.remove(p)
	return p.b.Value()
}

// RemoveByB removes the pairing of b and returns its former counterpart, if any.
func (m *WeakBiMap[A, B]) RemoveByB(b *B) *A {
	if b == nil {
		return nil
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	m.drain()
	p, ok := m.byB[weak.Make(b)]
	if !ok {
		return nil
	}
	m.remove(p)
	return p.a.Value()
}

// Size returns the number of pairings. Pairings with a collected side are
// counted until the runtime has reported the collection; call CleanUp for an
// exact number.
func (m *WeakBiMap[A, B]) Size() int {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.drain()
	return len(m.byA)
}

// As returns a snapshot of all live A-sides.
func (m *WeakBiMap[A, B]) As() []*A {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.drain()
	as := make([]*A, 0, len(m.byA))
	for k := range m.byA {
		if a := k.Value(); a != nil {
			as = append(as, a)
		}
	}
	return as
}

// Bs returns a snapshot of all live B-sides.
func (m *WeakBiMap[A, B]) Bs() []*B {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.drain()
	bs := make([]*B, 0, len(m.byB))
	for k := range m.byB {
		if b := k.Value(); b != nil {
			bs = append(bs, b)
		}
	}
	return bs
}

// CleanUp removes all pairings with at least one collected side.
func (m *WeakBiMap[A, B]) CleanUp() {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.drain()
	for ka, p := range m.byA {
		if ka.Value() == nil || p.b.Value() == nil {
			m.remove(p)
		}
	}
}

// Clear removes all pairings.
func (m *WeakBiMap[A, B]) Clear() {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.grave.exhume()
	for _, p := range m.byA {
		m.remove(p)
	}
}

// drain removes pairings reported by cleanup functions. Caller must hold the lock.
func (m *WeakBiMap[A, B]) drain() {
	dead := m.grave.exhume()
	for _, p := range dead {
		if !p.dead {
			m.remove(p)
		}
	}
	if len(dead) > 0 {
		tracer().Debugf("bimap: drained %d collected pairings", len(dead))
	}
}

// remove deletes a pairing from both directions. Caller must hold the lock.
func (m *WeakBiMap[A, B]) remove(p *pair[A, B]) {
	if p.dead {
		return
	}
	p.dead = true
	if m.byA[p.a] == p {
		delete(m.byA, p.a)
	}
	if m.byB[p.b] == p {
		delete(m.byB, p.b)
	}
	p.ca.Stop()
	p.cb.Stop()
}
