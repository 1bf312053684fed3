package eviction

import "container/list"

// FIFOPolicy orders keys by creation time. Overwriting a key renews its
// creation time and moves it to the back of the queue.
type FIFOPolicy struct {
	order *list.List // front is the oldest creation
	items map[string]*list.Element
}

// NewFIFOPolicy creates a FIFO eviction policy.
func NewFIFOPolicy() *FIFOPolicy {
	return &FIFOPolicy{
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

// Added registers key as the newest entry.
func (p *FIFOPolicy) Added(key string) {
	if el, ok := p.items[key]; ok {
		p.order.MoveToBack(el)
		return
	}
	p.items[key] = p.order.PushBack(key)
}

// Accessed is a no-op; FIFO ignores hits.
func (p *FIFOPolicy) Accessed(string) {}

// Removed drops key from the queue.
func (p *FIFOPolicy) Removed(key string) {
	if el, ok := p.items[key]; ok {
		p.order.Remove(el)
		delete(p.items, key)
	}
}

// Victim returns the key with the oldest creation time.
func (p *FIFOPolicy) Victim() (string, bool) {
	front := p.order.Front()
	if front == nil {
		return "", false
	}
	return front.Value.(string), true
}

// Len returns the number of tracked keys.
func (p *FIFOPolicy) Len() int {
	return len(p.items)
}

// Clear drops all tracked keys.
func (p *FIFOPolicy) Clear() {
	p.order.Init()
	p.items = make(map[string]*list.Element)
}
