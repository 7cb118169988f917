package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out  io.Writer
	json bool
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer, asJSON bool) *NetworksRenderer {
	return &NetworksRenderer{
		out:  out,
		json: asJSON,
	}
}

type networkJSON struct {
	Name    string `json:"name"`
	ChainID uint64 `json:"chainId,omitempty"`
	RPCURL  string `json:"rpcUrl,omitempty"`
	Local   bool   `json:"local"`
	Error   string `json:"error,omitempty"`
}

// Render renders the list of networks
func (r *NetworksRenderer) Render(result *usecase.ListNetworksResult) error {
	if r.json {
		out := make([]networkJSON, 0, len(result.Networks))
		for _, n := range result.Networks {
			entry := networkJSON{Name: n.Name, ChainID: n.ChainID, RPCURL: n.RPCURL, Local: n.Local}
			if n.Error != nil {
				entry.Error = n.Error.Error()
			}
			out = append(out, entry)
		}
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in foundry.toml [rpc_endpoints]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	for _, network := range result.Networks {
		if network.Error != nil {
			fmt.Fprintf(r.out, "  ❌ %s - Error: %v\n", network.Name, network.Error)
			continue
		}
		line := fmt.Sprintf("  ✅ %s - Chain ID: %d", network.Name, network.ChainID)
		if network.Local {
			line += color.New(color.Faint).Sprint(" (local)")
		}
		fmt.Fprintln(r.out, line)
	}

	return nil
}

var _ Renderer[*usecase.ListNetworksResult] = (*NetworksRenderer)(nil)
