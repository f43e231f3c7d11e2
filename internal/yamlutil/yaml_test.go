package yamlutil

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		want    sample
	}{
		{
			name: "valid document",
			data: "name: diagrams\ncount: 3\n",
			want: sample{Name: "diagrams", Count: 3},
		},
		{
			name: "unknown fields tolerated",
			data: "name: x\nextra: ignored\n",
			want: sample{Name: "x"},
		},
		{
			name:    "empty data",
			data:    "",
			wantErr: ErrEmptyData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			err := Unmarshal([]byte(tt.data), &got)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Unmarshal() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnmarshal_NilDestination(t *testing.T) {
	if err := Unmarshal([]byte("a: 1"), nil); !errors.Is(err, ErrNilDestination) {
		t.Errorf("Unmarshal(nil) error = %v, want ErrNilDestination", err)
	}
}

func TestUnmarshal_InputTooLarge(t *testing.T) {
	big := []byte("name: " + strings.Repeat("x", MaxInputSize))
	var got sample
	if err := Unmarshal(big, &got); !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("Unmarshal(big) error = %v, want ErrInputTooLarge", err)
	}
}

func TestUnmarshalStrict(t *testing.T) {
	var got sample
	if err := UnmarshalStrict([]byte("name: x\ncount: 1\n"), &got); err != nil {
		t.Fatalf("UnmarshalStrict() error = %v", err)
	}

	if err := UnmarshalStrict([]byte("name: x\nbogus: 1\n"), &got); err == nil {
		t.Error("UnmarshalStrict() should reject unknown fields")
	}
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(sample{Name: "page", Count: 2})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, w := range []string{"name: page", "count: 2"} {
		if !strings.Contains(string(out), w) {
			t.Errorf("Marshal() missing %q in %q", w, out)
		}
	}
}

func TestMarshalFrontMatter(t *testing.T) {
	got, err := MarshalFrontMatter(struct {
		Title string `yaml:"title"`
	}{Title: "Release Notes"})
	if err != nil {
		t.Fatalf("MarshalFrontMatter() error = %v", err)
	}
	want := "---\ntitle: Release Notes\n---\n\n"
	if got != want {
		t.Errorf("MarshalFrontMatter() = %q, want %q", got, want)
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	in := sample{Name: "round", Count: 7}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out sample
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
