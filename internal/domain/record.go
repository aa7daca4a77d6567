package domain

// Record is one encoded log entry. It is produced by a codec and never
// mutated afterwards; truncation always yields a new Record.
type Record []byte

// Len returns the encoded size in bytes, used for batch accounting.
func (r Record) Len() int {
	return len(r)
}

// String returns the record as text.
func (r Record) String() string {
	return string(r)
}

// RecordsFromStrings converts encoded strings into records.
func RecordsFromStrings(ss ...string) []Record {
	out := make([]Record, len(ss))
	for i, s := range ss {
		out[i] = Record(s)
	}
	return out
}

// Batch is an ordered group of records shipped together as one payload.
// It maintains the invariant that TotalBytes is the sum of record lengths.
type Batch struct {
	// Records holds the encoded records in arrival order
	Records []Record

	// TotalBytes is the sum of all record lengths
	TotalBytes int
}

// NewBatch creates a new empty batch with room for capacity records.
func NewBatch(capacity int) *Batch {
	return &Batch{Records: make([]Record, 0, capacity)}
}

// Add appends a record to the batch.
func (b *Batch) Add(r Record) {
	b.Records = append(b.Records, r)
	b.TotalBytes += r.Len()
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Records)
}

// Empty returns true if the batch has no records.
func (b *Batch) Empty() bool {
	return len(b.Records) == 0
}

// Payload is the wire-ready body for one delivery attempt sequence.
type Payload struct {
	// ID identifies the payload in logs and events
	ID string

	// Data is the framed, possibly compressed, body
	Data []byte

	// Records is the number of records framed into Data
	Records int

	// RawBytes is the size of Data before compression
	RawBytes int
}

// Size returns the number of bytes that go on the wire.
func (p Payload) Size() int {
	return len(p.Data)
}
