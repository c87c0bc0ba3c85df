package store

import "sync"

// Badger keys are rebuilt on every operation, so the buffers come from
// a pool. 256 bytes covers the worst case of prefix + "idx:" + index
// name + a prefixed nanoid value.
var keyPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 256)
	},
}

// buildKey assembles "<prefix><suffix>" in a pooled buffer. The caller
// must hand the buffer back with releaseKey once the transaction no
// longer needs it.
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// buildIndexKey assembles "<prefix>idx:<name>:<value>" in a pooled
// buffer, same ownership rules as buildKey.
func buildIndexKey(prefix, indexName, value string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, "idx:"...)
	buf = append(buf, indexName...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	return buf
}

// releaseKey returns a buffer to the pool. Oversized buffers are
// dropped so the pool stays small.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
