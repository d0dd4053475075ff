package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/iwvelando/loan-compare/internal/config"
)

var csvHeader = []string{
	"name", "rate", "borrowedShare", "loanDuration", "yearlyFees",
	"withFixedRate", "fixedRate", "fixedRateDuration", "withOffsetAccount",
}

// CSVStore is a file-backed OfferStore. The whole file is rewritten on every
// mutation; offers are small and few, so this stays simple and atomic enough.
type CSVStore struct {
	mu     sync.Mutex
	path   string
	memory *MemoryStore
}

// NewCSVStore opens (or creates) the offer file at path and loads its
// contents.
func NewCSVStore(path string) (*CSVStore, error) {
	s := &CSVStore{path: path, memory: NewMemoryStore()}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CSVStore) load() error {
	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("csv store: open %s: %w", s.path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return fmt.Errorf("csv store: parse %s: %w", s.path, err)
	}
	for i, record := range records {
		if i == 0 {
			continue
		}
		offer, err := unmarshalOffer(record)
		if err != nil {
			return fmt.Errorf("csv store: %s row %d: %w", s.path, i, err)
		}
		if err := s.memory.Put(offer); err != nil {
			return err
		}
	}
	return nil
}

func (s *CSVStore) flush() error {
	offers, err := s.memory.List()
	if err != nil {
		return err
	}

	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("csv store: create %s: %w", s.path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("csv store: write header: %w", err)
	}
	for _, offer := range offers {
		if err := writer.Write(marshalOffer(offer)); err != nil {
			return fmt.Errorf("csv store: write offer %s: %w", offer.Name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Put upserts an offer by name and rewrites the file.
func (s *CSVStore) Put(offer config.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.memory.Put(offer); err != nil {
		return err
	}
	return s.flush()
}

// Get returns the offer stored under name.
func (s *CSVStore) Get(name string) (config.Offer, error) {
	return s.memory.Get(name)
}

// Delete removes the offer stored under name and rewrites the file.
func (s *CSVStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.memory.Delete(name); err != nil {
		return err
	}
	return s.flush()
}

// List returns all offers in insertion order.
func (s *CSVStore) List() ([]config.Offer, error) {
	return s.memory.List()
}

func marshalOffer(offer config.Offer) []string {
	fixedRate := ""
	if offer.FixedRate != nil {
		fixedRate = strconv.FormatFloat(*offer.FixedRate, 'f', -1, 64)
	}
	fixedRateDuration := ""
	if offer.FixedRateDuration != nil {
		fixedRateDuration = strconv.Itoa(*offer.FixedRateDuration)
	}
	return []string{
		offer.Name,
		strconv.FormatFloat(offer.Rate, 'f', -1, 64),
		strconv.FormatFloat(offer.BorrowedShare, 'f', -1, 64),
		strconv.Itoa(offer.LoanDuration),
		strconv.FormatFloat(offer.YearlyFees, 'f', -1, 64),
		strconv.FormatBool(offer.WithFixedRate),
		fixedRate,
		fixedRateDuration,
		strconv.FormatBool(offer.WithOffsetAccount),
	}
}

func unmarshalOffer(record []string) (config.Offer, error) {
	if len(record) != len(csvHeader) {
		return config.Offer{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(record))
	}

	var offer config.Offer
	var err error
	offer.Name = record[0]
	if offer.Rate, err = strconv.ParseFloat(record[1], 64); err != nil {
		return config.Offer{}, fmt.Errorf("invalid rate %q", record[1])
	}
	if offer.BorrowedShare, err = strconv.ParseFloat(record[2], 64); err != nil {
		return config.Offer{}, fmt.Errorf("invalid borrowedShare %q", record[2])
	}
	if offer.LoanDuration, err = strconv.Atoi(record[3]); err != nil {
		return config.Offer{}, fmt.Errorf("invalid loanDuration %q", record[3])
	}
	if offer.YearlyFees, err = strconv.ParseFloat(record[4], 64); err != nil {
		return config.Offer{}, fmt.Errorf("invalid yearlyFees %q", record[4])
	}
	if offer.WithFixedRate, err = strconv.ParseBool(record[5]); err != nil {
		return config.Offer{}, fmt.Errorf("invalid withFixedRate %q", record[5])
	}
	if record[6] != "" {
		fixedRate, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			return config.Offer{}, fmt.Errorf("invalid fixedRate %q", record[6])
		}
		offer.FixedRate = &fixedRate
	}
	if record[7] != "" {
		fixedRateDuration, err := strconv.Atoi(record[7])
		if err != nil {
			return config.Offer{}, fmt.Errorf("invalid fixedRateDuration %q", record[7])
		}
		offer.FixedRateDuration = &fixedRateDuration
	}
	if offer.WithOffsetAccount, err = strconv.ParseBool(record[8]); err != nil {
		return config.Offer{}, fmt.Errorf("invalid withOffsetAccount %q", record[8])
	}
	return offer, nil
}
