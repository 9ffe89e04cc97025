package sng

import "strings"

// Header is an insertion-ordered set of SNG header parameters.
// SongBeamer rewrites files with headers in their original order, so a
// plain map would shuffle diffs on every cleanup run.
type Header struct {
	keys   []string
	values map[string]string
}

// NewHeader returns an empty header set.
func NewHeader() *Header {
	return &Header{values: make(map[string]string)}
}

// Get returns the value for key, or "" if absent.
func (h *Header) Get(key string) string {
	return h.values[key]
}

// Lookup returns the value for key and whether it is present.
func (h *Header) Lookup(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	_, ok := h.values[key]
	return ok
}

// Set stores key=value, appending the key to the order if new.
func (h *Header) Set(key, value string) {
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Delete removes key, keeping the order of the remaining keys.
func (h *Header) Delete(key string) {
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Rename moves the value of oldKey to newKey at oldKey's position.
// Used to normalize capitalization (churchsongid -> ChurchSongID).
func (h *Header) Rename(oldKey, newKey string) {
	v, ok := h.values[oldKey]
	if !ok || oldKey == newKey {
		return
	}
	delete(h.values, oldKey)
	h.values[newKey] = v
	for i, k := range h.keys {
		if k == oldKey {
			h.keys[i] = newKey
			break
		}
	}
}

// Keys returns the header keys in file order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Len returns the number of headers.
func (h *Header) Len() int {
	return len(h.keys)
}

// VerseOrder returns the parsed VerseOrder list, nil when the header is
// missing or empty.
func (h *Header) VerseOrder() []string {
	v, ok := h.values["VerseOrder"]
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// SetVerseOrder stores the VerseOrder list as a comma separated header.
func (h *Header) SetVerseOrder(order []string) {
	h.Set("VerseOrder", strings.Join(order, ","))
}
