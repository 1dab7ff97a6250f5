package workload

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParameterCounts(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		count       int
		wantNumbers int
		wantStmts   int
		wantSum     int
	}{
		{"constant 100", KindConstant, 100, 100, 0, 9900},
		{"constant 1000", KindConstant, 1000, 1000, 0, 999000},
		{"variable 100", KindVariable, 100, 0, 100, 9900},
		{"variable 1000", KindVariable, 1000, 0, 1000, 999000},
		{"array 100", KindArray, 100, 100, 100, 9900},
		{"array 1000", KindArray, 1000, 1000, 1000, 999000},
		{"empty", KindVariable, 0, 0, 0, 0},
		{"single", KindArray, 1, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.kind, tt.count)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			if len(p.Numbers) != tt.wantNumbers {
				t.Errorf("numbers = %d, want %d", len(p.Numbers), tt.wantNumbers)
			}
			if len(p.Statements) != tt.wantStmts {
				t.Errorf("statements = %d, want %d",
					len(p.Statements), tt.wantStmts)
			}
			if p.Sum != tt.wantSum {
				t.Errorf("sum = %d, want %d", p.Sum, tt.wantSum)
			}
			if p.Count() != tt.count {
				t.Errorf("count = %d, want %d", p.Count(), tt.count)
			}
		})
	}
}

func TestSumMatchesStatements(t *testing.T) {
	for _, count := range DefaultSizes {
		p, err := NewConstant(count)
		if err != nil {
			t.Fatalf("NewConstant(%d) failed: %v", count, err)
		}

		total := 0
		for _, n := range p.Numbers {
			total += n + n
		}

		if total != p.Sum {
			t.Errorf("count %d: computed %d, want %d", count, total, p.Sum)
		}
	}
}

func TestStatementFormat(t *testing.T) {
	v, err := NewVariable(3)
	if err != nil {
		t.Fatalf("NewVariable failed: %v", err)
	}

	want := []string{"0 + 0", "1 + 1", "2 + 2"}
	for i, s := range v.Statements {
		if s != want[i] {
			t.Errorf("statement %d = %q, want %q", i, s, want[i])
		}
	}

	a, err := NewArray(3)
	if err != nil {
		t.Fatalf("NewArray failed: %v", err)
	}

	if a.Statements[2] != "n[2] + n[2]" {
		t.Errorf("array statement = %q, want n[2] + n[2]", a.Statements[2])
	}
}

func TestNegativeCount(t *testing.T) {
	for _, kind := range Kinds() {
		if _, err := New(kind, -1); err == nil {
			t.Errorf("%s: expected error for negative count", kind)
		}
	}
}

func TestUnknownKind(t *testing.T) {
	if _, err := New("bogus", 10); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestString(t *testing.T) {
	p, err := NewVariable(100)
	if err != nil {
		t.Fatalf("NewVariable failed: %v", err)
	}

	if p.String() != "000100" {
		t.Errorf("String() = %q, want 000100", p.String())
	}
}

func TestEncodeValidJSONL(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			p, err := New(kind, 5)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			var buf bytes.Buffer
			if err := p.Encode(&buf); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			scanner := bufio.NewScanner(&buf)
			lineNum := 0

			for scanner.Scan() {
				var st Statement
				if err := json.Unmarshal(scanner.Bytes(), &st); err != nil {
					t.Fatalf("line %d: invalid JSON: %v", lineNum, err)
				}

				if st.Index != lineNum {
					t.Errorf("line %d: index = %d", lineNum, st.Index)
				}
				if st.Expected != 2*lineNum {
					t.Errorf("line %d: expected = %d, want %d",
						lineNum, st.Expected, 2*lineNum)
				}
				if !strings.Contains(st.Expression, "+") {
					t.Errorf("line %d: expression %q has no operator",
						lineNum, st.Expression)
				}

				lineNum++
			}

			if lineNum != 5 {
				t.Errorf("lines = %d, want 5", lineNum)
			}
		})
	}
}
