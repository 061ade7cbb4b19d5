// Package ofx writes transactions as OFX credit card statements and reads
// them back.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/model"
	"github.com/Veraticus/expensy/internal/service"
	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxNameLength is the longest NAME an OFX 2.2 transaction may carry.
const maxNameLength = 32

// Exporter renders transactions as a single credit card statement.
type Exporter struct {
	currency  ofxgo.CurrSymbol
	accountID string
	now       func() time.Time
}

// NewExporter creates an exporter for an ISO 4217 currency code.
func NewExporter(currency, accountID string) (*Exporter, error) {
	sym, err := ofxgo.NewCurrSymbol(currency)
	if err != nil {
		return nil, fmt.Errorf("%w: currency %q: %w", common.ErrInvalidConfig, currency, err)
	}
	if accountID == "" {
		accountID = "expensy"
	}
	return &Exporter{currency: *sym, accountID: accountID, now: time.Now}, nil
}

// Export writes txns to w. Expenses are debits; refunds are credits.
// Deleted rows are skipped.
func (e *Exporter) Export(w io.Writer, txns []model.Transaction) error {
	now := e.now().UTC()
	list := &ofxgo.TransactionList{
		DtStart: ofxgo.Date{Time: now},
		DtEnd:   ofxgo.Date{Time: now},
	}

	var balance decimal.Decimal
	for i := range txns {
		t := &txns[i]
		if t.IsDeleted {
			continue
		}
		ofxTx, err := e.transaction(t)
		if err != nil {
			return err
		}
		list.Transactions = append(list.Transactions, ofxTx)
		balance = balance.Sub(t.TransactionAmount)

		posted := t.PaymentDate.Time
		if posted.IsZero() {
			posted = t.PurchaseDate.Time
		}
		if !posted.IsZero() && posted.Before(list.DtStart.Time) {
			list.DtStart = ofxgo.Date{Time: posted}
		}
	}

	var balAmt ofxgo.Amount
	if _, ok := balAmt.SetString(balance.StringFixed(2)); !ok {
		return fmt.Errorf("invalid balance %s", balance)
	}

	stmt := &ofxgo.CCStatementResponse{
		TrnUID:       ofxgo.UID(uuid.NewString()),
		Status:       ofxgo.Status{Code: 0, Severity: "INFO"},
		CurDef:       e.currency,
		CCAcctFrom:   ofxgo.CCAcct{AcctID: ofxgo.String(e.accountID)},
		BankTranList: list,
		BalAmt:       balAmt,
		DtAsOf:       ofxgo.Date{Time: now},
	}

	resp := &ofxgo.Response{
		Version: ofxgo.OfxVersion220,
		Signon: ofxgo.SignonResponse{
			Status:   ofxgo.Status{Code: 0, Severity: "INFO"},
			DtServer: ofxgo.Date{Time: now},
			Language: "ENG",
		},
		CreditCard: []ofxgo.Message{stmt},
	}

	buf, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal OFX: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write OFX: %w", err)
	}

	slog.Debug("Exported OFX statement",
		"transactions", len(list.Transactions),
		"currency", e.currency.String())
	return nil
}

func (e *Exporter) transaction(t *model.Transaction) (ofxgo.Transaction, error) {
	var amt ofxgo.Amount
	if _, ok := amt.SetString(t.TransactionAmount.Neg().StringFixed(2)); !ok {
		return ofxgo.Transaction{}, fmt.Errorf("transaction %s: invalid amount %s", t.ID, t.TransactionAmount)
	}

	trnType := ofxgo.TrnTypeDebit
	if t.TransactionAmount.IsNegative() {
		trnType = ofxgo.TrnTypeCredit
	}

	posted := t.PaymentDate.Time
	if posted.IsZero() {
		posted = t.PurchaseDate.Time
	}

	name := t.Merchant()
	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}
	if name == "" {
		name = "Unknown"
	}

	out := ofxgo.Transaction{
		TrnType:  trnType,
		DtPosted: ofxgo.Date{Time: posted},
		TrnAmt:   amt,
		FiTID:    ofxgo.String(t.ID),
		Name:     ofxgo.String(name),
	}
	if !t.PurchaseDate.IsZero() {
		out.DtUser = &ofxgo.Date{Time: t.PurchaseDate.Time}
	}
	if t.IsCategorized() {
		out.Memo = ofxgo.String(t.Category())
	}
	return out, nil
}

// FileWriter exports reports to OFX files in a directory.
type FileWriter struct {
	exporter *Exporter
	dir      string
}

var _ service.ReportWriter = (*FileWriter)(nil)

// NewFileWriter creates a writer that places statements in dir.
func NewFileWriter(exporter *Exporter, dir string) *FileWriter {
	return &FileWriter{exporter: exporter, dir: dir}
}

// Path is the file a report generated at t is written to.
func (f *FileWriter) Path(t time.Time) string {
	return filepath.Join(f.dir, fmt.Sprintf("expensy-%s.ofx", t.Format("20060102-150405")))
}

// Write implements service.ReportWriter.
func (f *FileWriter) Write(ctx context.Context, report *service.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	path := f.Path(report.GeneratedAt)
	file, err := os.Create(path) //nolint:gosec // path is built from the configured export directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			slog.Warn("Failed to close OFX file", "path", path, "error", cerr)
		}
	}()

	if err := f.exporter.Export(file, report.Transactions); err != nil {
		return err
	}
	slog.Info("Wrote OFX export", "path", path, "transactions", len(report.Transactions))
	return nil
}
