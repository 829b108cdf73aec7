package weight_inspect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weightops/weight-inspect-go/util/json"
)

func TestCanonicalValue_Equal(t *testing.T) {
	cases := []struct {
		name     string
		given    CanonicalValue
		other    CanonicalValue
		expected bool
	}{
		{"same uint", UintValue(5, 32), UintValue(5, 32), true},
		{"uint width ignored", UintValue(5, 8), UintValue(5, 64), true},
		{"uint vs int same magnitude", UintValue(5, 8), IntValue(5, 64), true},
		{"negative vs unsigned", IntValue(-1, 32), UintValue(math.MaxUint64, 64), false},
		{"negative magnitude", IntValue(-7, 16), IntValue(-7, 64), true},
		{"f32 same bits", Float32Value(1.5), Float32Value(1.5), true},
		{"f32 vs f64", Float32Value(1.5), Float64Value(1.5), false},
		{"nan bit equal", Float64Value(math.NaN()), Float64Value(math.NaN()), true},
		{"zero vs negative zero", Float64Value(0.0), Float64Value(math.Copysign(0, -1)), false},
		{"bool", BoolValue(true), BoolValue(true), true},
		{"string nfc", StringValue("café"), StringValue("café"), true},
		{"string vs uint", StringValue("5"), UintValue(5, 32), false},
		{"unsupported same tag", UnsupportedValue(99), UnsupportedValue(99), true},
		{"unsupported other tag", UnsupportedValue(99), UnsupportedValue(98), false},
		{
			"array elementwise",
			ArrayValue([]CanonicalValue{UintValue(1, 8), StringValue("x")}),
			ArrayValue([]CanonicalValue{IntValue(1, 64), StringValue("x")}),
			true,
		},
		{
			"array length",
			ArrayValue([]CanonicalValue{UintValue(1, 8)}),
			ArrayValue(nil),
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.given.Equal(tc.other))
			assert.Equal(t, tc.expected, tc.other.Equal(tc.given), "equality is symmetric")
		})
	}
}

func TestCanonicalValue_JSON(t *testing.T) {
	cases := []CanonicalValue{
		UintValue(5, 32),
		IntValue(-7, 16),
		Float32Value(1.5),
		Float64Value(math.Inf(-1)),
		BoolValue(false),
		StringValue("llama"),
		ArrayValue([]CanonicalValue{UintValue(1, 8), ArrayValue(nil)}),
		UnsupportedValue(99),
	}
	for _, given := range cases {
		t.Run(given.Kind.String(), func(t *testing.T) {
			bs, err := json.Marshal(given)
			if err != nil {
				t.Fatal(err)
				return
			}

			var got CanonicalValue
			if err = json.Unmarshal(bs, &got); err != nil {
				t.Fatal(err)
				return
			}
			assert.True(t, given.Equal(got), "round-trip preserves equality: %s", string(bs))
		})
	}
}

func TestNumeric(t *testing.T) {
	assert.Equal(t, uint64(5), Numeric[uint64](UintValue(5, 32)))
	assert.Equal(t, int(-7), Numeric[int](IntValue(-7, 16)))
	assert.Equal(t, float64(1.5), Numeric[float64](Float32Value(1.5)))
	assert.Panics(t, func() { Numeric[int](StringValue("x")) })
}

func TestCanonicalValue_String(t *testing.T) {
	assert.Equal(t, "5", UintValue(5, 32).String())
	assert.Equal(t, "-7", IntValue(-7, 16).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "llama", StringValue("llama").String())
	assert.Equal(t, "[1,x]", ArrayValue([]CanonicalValue{UintValue(1, 8), StringValue("x")}).String())
	assert.Equal(t, "unsupported(99)", UnsupportedValue(99).String())
}
