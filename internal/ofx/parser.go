package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/expensy/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser reads OFX/QFX statements back into transactions, so exported
// files can be checked and statements from other tools compared.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes lose the closing bracket of a bare opening tag.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// Statement is one account statement read from a file.
type Statement struct {
	AccountID    string
	Currency     string
	Transactions []model.Transaction
}

// ParseFile parses an OFX/QFX file. Debits become positive expense amounts.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var statements []Statement
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			statements = append(statements, p.statement(string(stmt.BankAcctFrom.AcctID), stmt.CurDef, stmt.BankTranList))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			statements = append(statements, p.statement(string(stmt.CCAcctFrom.AcctID), stmt.CurDef, stmt.BankTranList))
		}
	}

	total := 0
	for _, s := range statements {
		total += len(s.Transactions)
	}
	slog.Debug("Parsed OFX file",
		"statements", len(statements),
		"total_transactions", total)

	return statements, nil
}

func (p *Parser) statement(accountID string, curDef ofxgo.CurrSymbol, list *ofxgo.TransactionList) Statement {
	s := Statement{AccountID: accountID, Currency: curDef.String()}
	if list == nil {
		return s
	}
	for _, ofxTx := range list.Transactions {
		s.Transactions = append(s.Transactions, p.convertTransaction(ofxTx, s.Currency))
	}
	return s
}

// convertTransaction converts an OFX transaction to our model.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, currency string) model.Transaction {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		slog.Warn("Unreadable OFX amount", "fitid", ofxTx.FiTID, "error", err)
	}
	amount = amount.Neg()

	purchased := ofxTx.DtPosted.Time
	if ofxTx.DtUser != nil && !ofxTx.DtUser.IsZero() {
		purchased = ofxTx.DtUser.Time
	}

	tx := model.Transaction{
		ID:                string(ofxTx.FiTID),
		PurchaseDate:      model.NewDate(purchased),
		PaymentDate:       model.NewDate(ofxTx.DtPosted.Time),
		MerchantData:      model.MerchantData{Name: p.extractMerchantName(ofxTx)},
		TransactionAmount: amount,
		OriginalAmount:    amount,
		OriginalCurrency:  currency,
	}
	if memo := strings.TrimSpace(string(ofxTx.Memo)); memo != "" {
		tx.CategoryName = &memo
	}
	return tx
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := strings.TrimSpace(string(tx.Name))

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}
