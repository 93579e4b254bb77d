package signal

// Bag is the complete, immutable signal set for one session. It is built once
// by a Builder, sealed before any classifier runs, and safe for concurrent
// reads. Every schema key is guaranteed to have an entry.
type Bag struct {
	signals map[string]Signal
}

// Get returns the Signal for key. Unknown keys yield a zero Signal with
// Present=false, so callers branch on data rather than on lookup failures.
func (b *Bag) Get(key string) Signal {
	if b == nil {
		return Signal{Key: key}
	}
	s, ok := b.signals[key]
	if !ok {
		return Signal{Key: key}
	}
	return s
}

// Present reports whether the host environment supplied a reading for key.
func (b *Bag) Present(key string) bool {
	return b.Get(key).Present
}

// Str returns the value for key as a string, or "" when it has another type.
func (b *Bag) Str(key string) string {
	v, _ := b.Get(key).Value.(string)
	return v
}

// Strs returns the value for key as a string slice, never nil.
func (b *Bag) Strs(key string) []string {
	v, ok := b.Get(key).Value.([]string)
	if !ok || v == nil {
		return []string{}
	}
	return v
}

// Bool returns the value for key as a bool.
func (b *Bag) Bool(key string) bool {
	v, _ := b.Get(key).Value.(bool)
	return v
}

// Int returns the value for key as an int, accepting float64 readings from
// JSON decoding.
func (b *Bag) Int(key string) int {
	switch v := b.Get(key).Value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Float returns the value for key as a float64.
func (b *Bag) Float(key string) float64 {
	switch v := b.Get(key).Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Geo returns the public-IP geolocation record and whether it was resolved.
func (b *Bag) Geo() (GeoInfo, bool) {
	s := b.Get(KeyPublicIPGeo)
	v, ok := s.Value.(GeoInfo)
	return v, ok && s.Present
}

// WebRTC returns the ICE candidate record and whether it was observed.
func (b *Bag) WebRTC() (WebRTCInfo, bool) {
	s := b.Get(KeyWebRTCCandidateTypes)
	v, ok := s.Value.(WebRTCInfo)
	return v, ok && s.Present
}

// Len returns the number of signals in the bag.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.signals)
}

// Builder accumulates signals and seals them into an immutable Bag. This
// replaces the live, still-mutating repository pattern: classifiers only ever
// see the sealed result.
type Builder struct {
	signals map[string]Signal
}

func NewBuilder() *Builder {
	return &Builder{signals: make(map[string]Signal, len(schema))}
}

// Set records a present reading for key. Unknown keys are ignored so a stale
// probe script cannot grow the schema.
func (b *Builder) Set(key string, value any) *Builder {
	if !KnownKey(key) {
		return b
	}
	b.signals[key] = Signal{Key: key, Value: value, Tier: tierOf(key), Present: true}
	return b
}

// SetAbsent records that the host could not supply key; the signal carries
// the schema default and Present=false.
func (b *Builder) SetAbsent(key string) *Builder {
	if !KnownKey(key) {
		return b
	}
	b.signals[key] = Signal{Key: key, Value: defaultOf(key), Tier: tierOf(key), Present: false}
	return b
}

// Merge copies previously normalized signals into the builder.
func (b *Builder) Merge(sigs []Signal) *Builder {
	for _, s := range sigs {
		if KnownKey(s.Key) {
			b.signals[s.Key] = s
		}
	}
	return b
}

// Build seals the bag. Every schema key missing from the builder is filled
// with an absent sentinel, so the result always has total coverage.
func (b *Builder) Build() *Bag {
	out := make(map[string]Signal, len(schema))
	for _, e := range schema {
		if s, ok := b.signals[e.Key]; ok {
			out[e.Key] = s
			continue
		}
		out[e.Key] = Signal{Key: e.Key, Value: e.Default(), Tier: e.Tier, Present: false}
	}
	return &Bag{signals: out}
}
