package codec

import (
	"testing"
)

type benchZip struct {
	Zip      string `json:"zip"`
	Area     string `json:"area"`
	Accounts int64  `json:"accounts"`
}

type benchPayload struct {
	Location  string            `json:"location"`
	Title     string            `json:"title"`
	Revenue   float64           `json:"revenue"`
	Reps      []string          `json:"reps"`
	Attrs     map[string]string `json:"attrs"`
	Active    []bool            `json:"active"`
	Territory []benchZip        `json:"territory"`
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func BenchmarkCodec_Marshal_Payload(b *testing.B) {
	payload := benchTerritory()

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, payload) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, payload) })
}

func BenchmarkCodec_Unmarshal_Payload(b *testing.B) {
	payload := benchTerritory()

	jsonData := MustMarshal(JSON{}, payload)

	b.Run("stdlib", func(b *testing.B) {
		var sink benchPayload
		benchmarkCodecUnmarshal(b, JSON{}, jsonData, &sink)
		_ = sink
	})
	b.Run("go-json", func(b *testing.B) {
		var sink benchPayload
		benchmarkCodecUnmarshal(b, GoJSON{}, jsonData, &sink)
		_ = sink
	})
}

func benchTerritory() benchPayload {
	return benchPayload{
		Location: "arizona",
		Title:    "West Valley plan",
		Revenue:  1250000.5,
		Reps:     []string{"ana", "ben", "cho", "dee", "eli"},
		Attrs: map[string]string{
			"dataType": "territory",
			"version":  "3",
			"owner":    "ops",
			"region":   "southwest",
		},
		Active: []bool{true, false, true, true, false, false, true},
		Territory: []benchZip{
			{Zip: "85021", Area: "West", Accounts: 150},
			{Zip: "85022", Area: "West", Accounts: 92},
			{Zip: "85281", Area: "East", Accounts: 211},
		},
	}
}
