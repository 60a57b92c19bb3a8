package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/nvandessel/txsim/internal/constants"
	"github.com/nvandessel/txsim/internal/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	rawLogHeader    = []string{"step", "action", "amount", "nameOrig", "oldBalanceOrig", "newBalanceOrig", "nameDest", "oldBalanceDest", "newBalanceDest", "isFraud", "isFlaggedFraud", "isUnauthorizedOverdraft"}
	aggregateHeader = []string{"action", "month", "day", "hour", "count", "sum", "avg", "std", "step"}
	profilesHeader  = []string{"profile", "count", "freq"}
	summaryHeader   = []string{"name", "steps", "nbTransactions", "nbClients", "totalError"}
	fraudsterHeader = []string{"name", "nbVictims", "profit"}
	errorsHeader    = []string{"action", "expected", "produced", "error"}
)

// CSVSink writes the classic file outputs of a run into a directory: the raw
// transaction log, the step aggregates, the client profile distribution, the
// fraudsters, the per-action error breakdown, a parameter dump and a line in
// the shared summary.
type CSVSink struct {
	dir string
	run RunInfo

	raw  *os.File
	rawW *csv.Writer
}

var _ Sink = (*CSVSink)(nil)

// NewCSVSink returns a sink writing under dir.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Begin(ctx context.Context, run RunInfo) error {
	if err := EnsureDir(s.dir); err != nil {
		return err
	}
	s.run = run

	params, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	if err := os.WriteFile(ParametersPath(s.dir, run.Name), params, 0644); err != nil {
		return fmt.Errorf("failed to write parameters: %w", err)
	}

	f, err := os.Create(RawLogPath(s.dir, run.Name))
	if err != nil {
		return fmt.Errorf("failed to create raw log: %w", err)
	}
	s.raw = f
	s.rawW = csv.NewWriter(f)
	if err := s.rawW.Write(rawLogHeader); err != nil {
		return fmt.Errorf("failed to write raw log header: %w", err)
	}
	s.rawW.Flush()
	return s.rawW.Error()
}

// Write appends the step's records to the raw log and flushes it.
func (s *CSVSink) Write(ctx context.Context, step int, txs []models.Transaction) error {
	if s.rawW == nil {
		return fmt.Errorf("csv sink not started")
	}
	for _, tx := range txs {
		if err := s.rawW.Write(rawLogRow(tx)); err != nil {
			return fmt.Errorf("failed to write raw log row: %w", err)
		}
	}
	s.rawW.Flush()
	return s.rawW.Error()
}

func (s *CSVSink) Finish(ctx context.Context, sum Summary) error {
	aggRows := make([][]string, 0, len(sum.Aggregates))
	for _, a := range sum.Aggregates {
		aggRows = append(aggRows, aggregateRow(a))
	}
	if err := writeCSV(AggregatePath(s.dir, s.run.Name), aggregateHeader, aggRows); err != nil {
		return err
	}

	total := 0
	for _, pc := range sum.ProfileCounts {
		total += pc.Count
	}
	profRows := make([][]string, 0, len(sum.ProfileCounts))
	for _, pc := range sum.ProfileCounts {
		freq := 0.0
		if total > 0 {
			freq = float64(pc.Count) / float64(total)
		}
		profRows = append(profRows, []string{pc.Name, strconv.Itoa(pc.Count), strconv.FormatFloat(freq, 'f', 4, 64)})
	}
	if err := writeCSV(ProfilesPath(s.dir, s.run.Name), profilesHeader, profRows); err != nil {
		return err
	}

	fraudRows := make([][]string, 0, len(sum.Fraudsters))
	for _, f := range sum.Fraudsters {
		fraudRows = append(fraudRows, []string{f.ID, strconv.Itoa(f.Victims), formatAmount(f.Profit)})
	}
	if err := writeCSV(FraudstersPath(s.dir, s.run.Name), fraudsterHeader, fraudRows); err != nil {
		return err
	}

	errRows := make([][]string, 0, len(sum.ActionErrors))
	for _, e := range sum.ActionErrors {
		errRows = append(errRows, []string{
			e.Action.String(),
			strconv.Itoa(e.Expected),
			strconv.Itoa(e.Produced),
			strconv.FormatFloat(e.Error, 'f', 6, 64),
		})
	}
	if err := writeCSV(RunSummaryPath(s.dir, s.run.Name), errorsHeader, errRows); err != nil {
		return err
	}

	return appendSummary(SummaryPath(s.dir), []string{
		sum.Run.Name,
		strconv.Itoa(sum.Run.Steps),
		strconv.Itoa(sum.Transactions),
		strconv.Itoa(sum.Run.Clients),
		strconv.FormatFloat(sum.TotalError, 'f', 6, 64),
	})
}

func (s *CSVSink) Close() error {
	if s.raw == nil {
		return nil
	}
	s.rawW.Flush()
	flushErr := s.rawW.Error()
	closeErr := s.raw.Close()
	s.raw, s.rawW = nil, nil
	if flushErr != nil {
		return fmt.Errorf("failed to flush raw log: %w", flushErr)
	}
	return closeErr
}

func rawLogRow(tx models.Transaction) []string {
	o, d := tx.Origin(), tx.Dest()
	return []string{
		strconv.Itoa(tx.Step()),
		tx.Action().String(),
		formatAmount(tx.Amount()),
		o.ID,
		formatAmount(o.BalanceBefore),
		formatAmount(o.BalanceAfter),
		d.ID,
		formatAmount(d.BalanceBefore),
		formatAmount(d.BalanceAfter),
		formatBool(tx.IsFraud()),
		formatBool(tx.IsFlaggedFraud()),
		formatBool(tx.IsUnauthorizedOverdraft()),
	}
}

func aggregateRow(a models.StepActionProfile) []string {
	return []string{
		a.Action.String(),
		strconv.Itoa(a.Month),
		strconv.Itoa(a.Day),
		strconv.Itoa(a.Hour),
		strconv.Itoa(a.Count),
		formatAmount(a.Sum),
		formatAmount(a.Mean),
		formatAmount(a.Std),
		strconv.Itoa(a.Step),
	}
}

// formatAmount renders money with OutputPrecision decimals.
func formatAmount(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(constants.OutputPrecision)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// appendSummary adds one line to the shared summary, writing the header when
// the file is new.
func appendSummary(path string, row []string) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open summary: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(summaryHeader); err != nil {
			return fmt.Errorf("failed to write summary header: %w", err)
		}
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return f.Close()
}
