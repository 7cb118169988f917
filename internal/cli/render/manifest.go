package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/treb-proxy/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	labelStyle    = color.New(color.Bold)
	addressStyle  = color.New(color.FgWhite)
	proxyStyle    = color.New(color.FgGreen, color.Bold)
	previousStyle = color.New(color.Faint)
	txStyle       = color.New(color.Faint)
)

// title upper-cases the first letter of each word; a Caser keeps state, so
// each call gets its own
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// ManifestRenderer renders deploy and upgrade results, either as a
// human-readable summary or as JSON
type ManifestRenderer struct {
	out  io.Writer
	json bool
}

// NewManifestRenderer creates a new manifest renderer
func NewManifestRenderer(out io.Writer, asJSON bool) *ManifestRenderer {
	return &ManifestRenderer{out: out, json: asJSON}
}

// RenderDeployment renders the manifest of a successful deploy run
func (r *ManifestRenderer) RenderDeployment(m *domain.DeploymentManifest) error {
	if r.json {
		return r.writeJSON(m)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, FormatSuccess("Deployment complete!"))
	fmt.Fprintf(r.out, "   Network: %s (Chain ID: %d)\n", m.Network, m.ChainID)
	fmt.Fprintln(r.out)

	t := newSummaryTable()
	t.AppendRow(table.Row{r.role(domain.RoleImplementation), m.ImplementationContract, addressStyle.Sprint(m.Implementation.Hex())})
	t.AppendRow(table.Row{r.role(domain.RoleAdmin), m.AdminContract, addressStyle.Sprint(m.Admin.Hex())})
	t.AppendRow(table.Row{r.role(domain.RoleProxy), "", proxyStyle.Sprint(m.Proxy.Hex())})
	fmt.Fprintln(r.out, t.Render())

	r.renderTransactions(m.Transactions)

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Save this for upgrades:\n  ADMIN_CONTRACT_ADDRESS=%s\n", m.Admin.Hex())
	return nil
}

// RenderUpgrade renders the report of a successful upgrade run
func (r *ManifestRenderer) RenderUpgrade(u *domain.UpgradeReport) error {
	if r.json {
		return r.writeJSON(u)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, FormatSuccess("Upgrade complete!"))
	fmt.Fprintf(r.out, "   Network: %s (Chain ID: %d)\n", u.Network, u.ChainID)
	fmt.Fprintln(r.out)

	t := newSummaryTable()
	t.AppendRow(table.Row{r.role(domain.RoleAdmin), "", addressStyle.Sprint(u.Admin.Hex())})
	t.AppendRow(table.Row{r.role(domain.RoleProxy), "unchanged", proxyStyle.Sprint(u.Proxy.Hex())})
	if u.PreviousImplementation != (common.Address{}) {
		t.AppendRow(table.Row{labelStyle.Sprint("Previous"), u.ImplementationContract, previousStyle.Sprint(u.PreviousImplementation.Hex())})
	}
	t.AppendRow(table.Row{r.role(domain.RoleImplementation), u.ImplementationContract, addressStyle.Sprint(u.NewImplementation.Hex())})
	fmt.Fprintln(r.out, t.Render())

	if u.PreviousImplementation == (common.Address{}) {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatWarning("The previous implementation could not be read from this chain"))
	}

	r.renderTransactions(u.Transactions)
	return nil
}

func (r *ManifestRenderer) renderTransactions(txs []domain.TransactionRecord) {
	if len(txs) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, labelStyle.Sprint("Transactions:"))
	for _, tx := range txs {
		fmt.Fprintf(r.out, "  %-22s %s\n", title(tx.Step), txStyle.Sprint(tx.TxHash.Hex()))
	}
}

func (r *ManifestRenderer) role(role string) string {
	return labelStyle.Sprint(title(role))
}

func (r *ManifestRenderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSummaryTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingLeft:  "  ",
		PaddingRight: "  ",
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft},
	})
	return t
}
