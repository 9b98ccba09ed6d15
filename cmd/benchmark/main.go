package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/model"
	"github.com/limaJavier/sts/pkg/result"
)

// KB converts the kilobytes reported by /usr/bin/time into megabytes
const KB float32 = 1024

type BenchmarkCase struct {
	Paradigm engine.Paradigm
	Approach string
	N        int
}

type BenchmarkResult struct {
	Case          BenchmarkCase
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Outcome       string
	Recorded      result.ApproachResult
}

type options struct {
	executable string
	outputDir  string
	csvPath    string
	ns         []int
	approaches map[string]string
	optimize   bool
}

func main() {
	var opts options
	rootCmd := &cobra.Command{
		Use:          "benchmark",
		Short:        "Run sts under /usr/bin/time and collect wall clock, memory and CPU usage",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	rootCmd.Flags().StringVar(&opts.executable, "sts", "../../bin/sts", "Path to the sts executable")
	rootCmd.Flags().StringVar(&opts.outputDir, "out", "benchmark_res", "Results directory handed to sts")
	rootCmd.Flags().StringVar(&opts.csvPath, "csv", "benchmark_results.csv", "CSV file to write")
	rootCmd.Flags().IntSliceVar(&opts.ns, "n", model.StandardInstances, "Team counts to benchmark")
	rootCmd.Flags().StringToStringVar(&opts.approaches, "approaches", map[string]string{
		"SAT": "gini",
		"CP":  "gecode",
		"MIP": "highs",
	}, "Approaches per paradigm, as PARADIGM=a;b")
	rootCmd.Flags().BoolVar(&opts.optimize, "optimize", false, "Benchmark optimization runs")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts options) error {
	cases, err := getCases(opts)
	if err != nil {
		return err
	}
	recorder := result.NewRecorder(opts.outputDir, nil)
	results := make([]BenchmarkResult, 0, len(cases))

	for _, benchmarkCase := range cases {
		fmt.Printf("Benchmarking n=%d with paradigm \"%v\" and approach \"%v\"\n", benchmarkCase.N, benchmarkCase.Paradigm, benchmarkCase.Approach)

		res := measure(opts, benchmarkCase)
		record, err := recorder.Load(benchmarkCase.Paradigm, benchmarkCase.N)
		if err != nil {
			return err
		}
		if recorded, ok := record[benchmarkCase.Approach]; ok && res.Outcome != "error" {
			res.Recorded = recorded
			res.Outcome = outcome(recorded)
		}
		results = append(results, res)
	}

	return toCsv(opts.csvPath, results)
}

func getCases(opts options) ([]BenchmarkCase, error) {
	cases := make([]BenchmarkCase, 0)
	for _, paradigm := range engine.Paradigms {
		approaches, ok := opts.approaches[string(paradigm)]
		if !ok {
			continue
		}
		for _, approach := range strings.Split(approaches, ";") {
			for _, n := range opts.ns {
				if _, err := model.NewInstance(n); err != nil {
					return nil, err
				}
				cases = append(cases, BenchmarkCase{Paradigm: paradigm, Approach: approach, N: n})
			}
		}
	}
	return cases, nil
}

func outcome(recorded result.ApproachResult) string {
	switch {
	case len(recorded.Sol) > 0:
		return "sat"
	case recorded.Optimal:
		return "unsat"
	default:
		return "unknown"
	}
}

func measure(opts options, benchmarkCase BenchmarkCase) BenchmarkResult {
	args := []string{"-v", opts.executable, "solve",
		"--model", string(benchmarkCase.Paradigm),
		"--n", strconv.Itoa(benchmarkCase.N),
		"--approach", benchmarkCase.Approach,
		"--out", opts.outputDir,
	}
	if opts.optimize {
		args = append(args, "--optimize")
	}
	cmd := exec.Command("/usr/bin/time", args...)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	res := BenchmarkResult{Case: benchmarkCase, Outcome: "unknown"}
	if err := cmd.Run(); err != nil {
		log.Printf("an error occurred during the execution of sts with n=%d, paradigm \"%v\", approach \"%v\": %v\n", benchmarkCase.N, benchmarkCase.Paradigm, benchmarkCase.Approach, err)
		res.Outcome = "error"
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) (string, bool) {
		return lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
	}

	if line, ok := getLine("wall clock"); ok {
		res.Duration = parseDurationLine(line)
	}
	if line, ok := getLine("maximum resident set size"); ok {
		res.Memory = parseMemoryLine(line)
	}
	if line, ok := getLine("percent of cpu"); ok {
		res.CpuPercentage = parseCpuPercentageLine(line)
	}
	return res
}

func toCsv(path string, results []BenchmarkResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Paradigm", "Approach", "N", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result", "Recorded time(s)", "Optimal", "Objective"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}

	for _, res := range results {
		objective := ""
		if res.Recorded.Obj != nil {
			objective = strconv.FormatFloat(*res.Recorded.Obj, 'g', -1, 64)
		}
		record := []string{
			string(res.Case.Paradigm),
			res.Case.Approach,
			strconv.Itoa(res.Case.N),
			fmt.Sprintf("%d", res.Duration),
			fmt.Sprintf("%.1f", res.Memory),
			fmt.Sprintf("%d", res.CpuPercentage),
			res.Outcome,
			strconv.Itoa(res.Recorded.Time),
			strconv.FormatBool(res.Recorded.Optimal),
			objective,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write CSV record: %w", err)
		}
	}
	return nil
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

// Maximum resident set size is reported in kilobytes
func parseMemoryLine(line string) float32 {
	memoryStr := strings.TrimSpace(strings.Split(line, ":")[1])
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / KB
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.TrimSpace(strings.Split(line, ":")[1])
	percentageStr = strings.TrimSuffix(percentageStr, "%")
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
