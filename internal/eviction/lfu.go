package eviction

import "container/list"

// LFUPolicy orders keys by hit count, breaking ties by creation order so
// victim selection stays deterministic. Overwriting a key starts its count
// over.
type LFUPolicy struct {
	frequencies map[string]int
	order       *list.List // creation order for tie-breaking
	items       map[string]*list.Element
}

// NewLFUPolicy creates an LFU eviction policy.
func NewLFUPolicy() *LFUPolicy {
	return &LFUPolicy{
		frequencies: make(map[string]int),
		order:       list.New(),
		items:       make(map[string]*list.Element),
	}
}

// Added registers key with a fresh hit count.
func (p *LFUPolicy) Added(key string) {
	p.frequencies[key] = 0
	if el, ok := p.items[key]; ok {
		p.order.MoveToBack(el)
		return
	}
	p.items[key] = p.order.PushBack(key)
}

// Accessed increments key's hit count.
func (p *LFUPolicy) Accessed(key string) {
	if _, ok := p.frequencies[key]; ok {
		p.frequencies[key]++
	}
}

// Removed drops key from the tracker.
func (p *LFUPolicy) Removed(key string) {
	if el, ok := p.items[key]; ok {
		p.order.Remove(el)
		delete(p.items, key)
		delete(p.frequencies, key)
	}
}

// Victim returns the key with the fewest hits, oldest first among ties.
func (p *LFUPolicy) Victim() (string, bool) {
	if len(p.items) == 0 {
		return "", false
	}

	var victim string
	minFreq := -1
	for el := p.order.Front(); el != nil; el = el.Next() {
		key := el.Value.(string)
		if freq := p.frequencies[key]; minFreq == -1 || freq < minFreq {
			minFreq = freq
			victim = key
		}
	}
	return victim, true
}

// Len returns the number of tracked keys.
func (p *LFUPolicy) Len() int {
	return len(p.items)
}

// Clear drops all tracked keys.
func (p *LFUPolicy) Clear() {
	p.frequencies = make(map[string]int)
	p.order.Init()
	p.items = make(map[string]*list.Element)
}
