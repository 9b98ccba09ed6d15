// Package result records approach outcomes in per-instance JSON files:
// <dir>/<PARADIGM>/<n>.json, one object keyed by approach name.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/model"
	"go.uber.org/zap"
)

var ErrPersistence = errors.New("result persistence failed")

// ApproachResult is the recorded outcome of one approach on one instance
type ApproachResult struct {
	// Time is the floor of the elapsed seconds, or the budget when no conclusive answer was reached
	Time    int            `json:"time"`
	Optimal bool           `json:"optimal"`
	Obj     *float64       `json:"obj"`
	Sol     model.Schedule `json:"sol"`
}

// Record maps approach names to their results
type Record map[string]ApproachResult

// FromVerdict applies the recording rules to a verdict. schedule is the extracted
// schedule of a feasible verdict and is ignored otherwise.
func FromVerdict(verdict engine.Verdict, elapsed, budget time.Duration, schedule model.Schedule) ApproachResult {
	budgetSeconds := int(min(budget, engine.MaxTimeLimit) / time.Second)

	switch verdict.Status {
	case engine.Infeasible:
		return ApproachResult{Time: min(int(elapsed/time.Second), budgetSeconds), Optimal: true}
	case engine.Feasible:
		res := ApproachResult{Time: min(int(elapsed/time.Second), budgetSeconds), Optimal: true, Sol: schedule}
		if verdict.Objective != nil {
			obj := *verdict.Objective
			res.Obj = &obj
			if !verdict.Optimal {
				res.Time = budgetSeconds
				res.Optimal = false
			}
		}
		return res
	default:
		return ApproachResult{Time: budgetSeconds, Optimal: false}
	}
}

// Recorder merges approach results into result files. Writes to one file are
// serialized and atomic: a reader sees either the previous or the new content.
type Recorder struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRecorder(dir string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Path returns the result file of an instance
func (recorder *Recorder) Path(paradigm engine.Paradigm, n int) string {
	return filepath.Join(recorder.dir, string(paradigm), strconv.Itoa(n)+".json")
}

func (recorder *Recorder) lock(path string) *sync.Mutex {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	lock, ok := recorder.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		recorder.locks[path] = lock
	}
	return lock
}

// Record stores res under approach in the instance's result file, keeping every
// other approach's entry. It returns the file path.
func (recorder *Recorder) Record(paradigm engine.Paradigm, n int, approach string, res ApproachResult) (string, error) {
	if res.Obj != nil && (math.IsNaN(*res.Obj) || math.IsInf(*res.Obj, 0)) {
		return "", fmt.Errorf("%w: objective of %v is not a finite number", ErrPersistence, approach)
	}

	path := recorder.Path(paradigm, n)
	lock := recorder.lock(path)
	lock.Lock()
	defer lock.Unlock()

	record, err := recorder.load(path)
	if err != nil {
		return "", err
	}
	record[approach] = res

	if err := write(path, record); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	recorder.logger.Debug("result recorded",
		zap.String("path", path),
		zap.String("approach", approach),
		zap.Int("entries", len(record)),
	)
	return path, nil
}

// Load reads the result file of an instance; a missing file is an empty record
func (recorder *Recorder) Load(paradigm engine.Paradigm, n int) (Record, error) {
	path := recorder.Path(paradigm, n)
	lock := recorder.lock(path)
	lock.Lock()
	defer lock.Unlock()
	return recorder.load(path)
}

func (recorder *Recorder) load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	record := Record{}
	if err := json.Unmarshal(data, &record); err != nil {
		// An unreadable file is replaced rather than blocking the run
		recorder.logger.Warn("discarding corrupt result file", zap.String("path", path), zap.Error(err))
		return Record{}, nil
	}
	return record, nil
}

func write(path string, record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	temp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(temp.Name())

	if _, err := temp.Write(append(data, '\n')); err != nil {
		temp.Close()
		return err
	}
	if err := temp.Close(); err != nil {
		return err
	}
	return os.Rename(temp.Name(), path)
}
