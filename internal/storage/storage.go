package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/internal/netfile"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/neuralnet"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	weightPrefix   = "weights/"
)

// ErrNotFound is returned for unknown weight set names.
var ErrNotFound = errors.New("weight set not found")

// Preferences stores CLI defaults.
type Preferences struct {
	DefaultSet string    `json:"default_set"`
	Workers    int       `json:"workers"`
	BoundMode  string    `json:"bound_mode"`
	LastUsed   time.Time `json:"last_used"`
}

// DefaultPreferences returns default preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		Workers:   1,
		BoundMode: neuralnet.StrictBounds.String(),
		LastUsed:  time.Now(),
	}
}

// RunStats accumulates controller usage across invocations.
type RunStats struct {
	Runs       int            `json:"runs"`
	Loads      int            `json:"loads"`
	Executions int            `json:"executions"`
	RunsBySet  map[string]int `json:"runs_by_set"`
	TotalTime  time.Duration  `json:"total_time"`
	LastSet    string         `json:"last_set"`
}

// NewRunStats returns empty statistics
func NewRunStats() *RunStats {
	return &RunStats{
		RunsBySet: make(map[string]int),
	}
}

// RunResult describes one finished controller call.
type RunResult struct {
	Set      string
	Loaded   bool
	Executed bool
	Duration time.Duration
}

// SetInfo summarizes a stored weight set.
type SetInfo struct {
	Name string
	Dims neuralnet.Dimensions
	Size int // encoded bytes
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	log logr.Logger
}

// NewStorage opens the database in the platform data directory, or under
// dataDir when it is non-empty.
func NewStorage(dataDir string, log logr.Logger) (*Storage, error) {
	dbDir, err := GetDatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("opening database", "dir", dbDir)

	return open(badger.DefaultOptions(dbDir), log)
}

// OpenInMemory opens a database that lives only as long as the Storage.
func OpenInMemory(log logr.Logger) (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log logr.Logger) (*Storage, error) {
	log = log.WithName("storage")
	opts.Logger = badgerLogger{log: log.WithName("badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db, log: log}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func weightKey(name string) []byte {
	return []byte(weightPrefix + name)
}

// SaveWeightSet stores ws under name, replacing any previous set.
func (s *Storage) SaveWeightSet(name string, ws *netfile.WeightSet) error {
	if name == "" {
		return errors.New("weight set name must not be empty")
	}

	var buf bytes.Buffer
	buf.Grow(ws.EncodedSize())
	if err := netfile.Write(&buf, ws); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(weightKey(name), buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("failed to save weight set %q: %w", name, err)
	}

	s.log.V(1).Info("weight set saved", "name", name, "dims", ws.Dims.String(), "bytes", buf.Len())
	return nil
}

// LoadWeightSet returns the set stored under name.
func (s *Storage) LoadWeightSet(name string) (*netfile.WeightSet, error) {
	var ws *netfile.WeightSet

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(weightKey(name))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			ws, err = netfile.Read(bytes.NewReader(val))
			return err
		})
	})

	return ws, err
}

// ListWeightSets returns every stored set in key order.
func (s *Storage) ListWeightSets() ([]SetInfo, error) {
	var sets []SetInfo

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(weightPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), weightPrefix)

			err := item.Value(func(val []byte) error {
				ws, err := netfile.Read(bytes.NewReader(val))
				if err != nil {
					return fmt.Errorf("weight set %q: %w", name, err)
				}
				sets = append(sets, SetInfo{Name: name, Dims: ws.Dims, Size: len(val)})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return sets, err
}

// DeleteWeightSet removes the set stored under name.
func (s *Storage) DeleteWeightSet(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(weightKey(name)); err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		} else if err != nil {
			return err
		}
		return txn.Delete(weightKey(name))
	})
}

// SavePreferences saves preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastUsed = time.Now()

	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPreferences), data)
	})
}

// LoadPreferences loads preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPreferences))
		if err == badger.ErrKeyNotFound {
			return nil // Use defaults
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, prefs)
		})
	})

	return prefs, err
}

// SaveStats saves run statistics
func (s *Storage) SaveStats(stats *RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// LoadStats loads run statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*RunStats, error) {
	stats := NewRunStats()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if err == badger.ErrKeyNotFound {
			return nil // Use empty stats
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})

	if stats.RunsBySet == nil {
		stats.RunsBySet = make(map[string]int)
	}
	return stats, err
}

// RecordRun records a finished controller call and updates statistics
func (s *Storage) RecordRun(result RunResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.Runs++
	stats.TotalTime += result.Duration
	if result.Loaded {
		stats.Loads++
	}
	if result.Executed {
		stats.Executions++
	}
	if result.Set != "" {
		stats.RunsBySet[result.Set]++
		stats.LastSet = result.Set
	}

	return s.SaveStats(stats)
}

// AverageRunTime returns the mean duration of recorded runs.
func (s *RunStats) AverageRunTime() time.Duration {
	if s.Runs == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Runs)
}
