package optional

import (
	"encoding/json"
	"testing"
)

type patch struct {
	City    Value[string]  `json:"city"`
	ZipCode Value[string]  `json:"zipCode"`
	Weight  Value[float64] `json:"weight"`
}

func TestValueDistinguishesMissingFromNull(t *testing.T) {
	var p patch
	if err := json.Unmarshal([]byte(`{"city":"Lagos","zipCode":null}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got, ok := p.City.Get(); !ok || got != "Lagos" {
		t.Fatalf("city: want=%q got=%q ok=%v", "Lagos", got, ok)
	}
	if !p.ZipCode.IsSet() || !p.ZipCode.IsNull() {
		t.Fatalf("zipCode: want set and null, got set=%v null=%v", p.ZipCode.IsSet(), p.ZipCode.IsNull())
	}
	if _, ok := p.ZipCode.Get(); ok {
		t.Fatalf("zipCode: Get should report no value for null")
	}
	if p.Weight.IsSet() {
		t.Fatalf("weight: want unset")
	}
}

func TestValueMarshal(t *testing.T) {
	raw, err := json.Marshal(patch{City: Some("Accra"), ZipCode: Null[string]()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"city":"Accra","zipCode":null,"weight":null}`
	if string(raw) != want {
		t.Fatalf("marshal: want=%s got=%s", want, raw)
	}
}
