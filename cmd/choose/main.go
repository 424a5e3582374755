package main

import (
	"cmp"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/ciricc/go-gemm-bench/pkg/benchreport"
	"github.com/samber/lo"
)

// Choice is one successful result together with the report it came from.
type Choice struct {
	Path   string
	Label  string
	Result benchreport.Result
}

// Shape identifies results that are directly comparable.
type Shape struct {
	M, N, K   int
	Precision string
}

func (s Shape) String() string {
	return fmt.Sprintf("M=%d N=%d K=%d %s", s.M, s.N, s.K, s.Precision)
}

type Group struct {
	Shape   Shape
	Choices []Choice
}

func main() {
	var (
		dir        = flag.String("dir", "reports", "directory containing JSON benchmark reports")
		maxResults = flag.Int("n", 5, "number of top configurations to print per shape")
		precision  = flag.String("precision", "", "only show this precision (fp64|fp32|fp16|int8)")
	)
	flag.Parse()

	loaded, err := benchreport.LoadDir(*dir)
	if err != nil {
		fatalf("load reports: %v", err)
	}
	if len(loaded) == 0 {
		fatalf("no reports found in %s", *dir)
	}

	groups := rank(collect(loaded, *precision))
	if len(groups) == 0 {
		fatalf("no successful results in %s", *dir)
	}
	printGroups(os.Stdout, groups, *maxResults)
}

func collect(loaded []benchreport.Loaded, precision string) []Choice {
	var out []Choice
	for _, l := range loaded {
		for _, r := range l.Report.Results {
			if r.Failed() || r.Throughput <= 0 {
				continue
			}
			if precision != "" && !strings.EqualFold(r.Precision, precision) {
				continue
			}
			out = append(out, Choice{Path: l.Path, Label: l.Report.Label, Result: r})
		}
	}
	return out
}

// rank groups choices by shape, best throughput first. Ties go to the lower
// average time, then to the path for a stable order. Groups are ordered by
// problem size.
func rank(choices []Choice) []Group {
	byShape := lo.GroupBy(choices, func(c Choice) Shape {
		return Shape{M: c.Result.M, N: c.Result.N, K: c.Result.K, Precision: c.Result.Precision}
	})
	groups := lo.MapToSlice(byShape, func(s Shape, cs []Choice) Group {
		slices.SortStableFunc(cs, func(a, b Choice) int {
			return cmp.Or(
				cmp.Compare(b.Result.Throughput, a.Result.Throughput),
				cmp.Compare(a.Result.AvgMs, b.Result.AvgMs),
				cmp.Compare(a.Path, b.Path),
			)
		})
		return Group{Shape: s, Choices: cs}
	})
	slices.SortFunc(groups, func(a, b Group) int {
		return cmp.Or(
			cmp.Compare(a.Shape.M*a.Shape.N*a.Shape.K, b.Shape.M*b.Shape.N*b.Shape.K),
			cmp.Compare(a.Shape.M, b.Shape.M),
			cmp.Compare(a.Shape.N, b.Shape.N),
			cmp.Compare(a.Shape.K, b.Shape.K),
			cmp.Compare(a.Shape.Precision, b.Shape.Precision),
		)
	})
	return groups
}

func printGroups(w io.Writer, groups []Group, maxResults int) {
	for _, g := range groups {
		fmt.Fprintf(w, "%s\n", g.Shape)
		for i, c := range g.Choices[:min(maxResults, len(g.Choices))] {
			r := c.Result
			fmt.Fprintf(w, "%d) %s\n", i+1, c.Path)
			fmt.Fprintf(w, "   label=%s trans_a=%d trans_b=%d tensor_op=%d algo=%d\n", c.Label, r.TransA, r.TransB, r.TensorOp, r.Algo)
			fmt.Fprintf(w, "   avg_ms=%.4f %s=%.4f", r.AvgMs, strings.ToLower(r.Unit), r.Throughput)
			if med, ok := r.Extra["median_ms"]; ok {
				fmt.Fprintf(w, " median_ms=%.4f", med)
			}
			fmt.Fprintln(w)
		}
	}
}

func fatalf(format string, a ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
