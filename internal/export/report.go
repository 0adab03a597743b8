package export

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/terrastat/lisa-cli/internal/model"
	"github.com/terrastat/lisa-cli/internal/pipeline"
)

// Report writes a human-readable summary of one variable's analysis.
func Report(w io.Writer, res *pipeline.Result) error {
	p := message.NewPrinter(language.English)

	if _, err := p.Fprintf(w, "Variable: %s (n=%d, alpha=%.3g)\n", res.Variable, res.N, res.Alpha); err != nil {
		return err
	}
	if len(res.Islands) > 0 {
		if _, err := p.Fprintf(w, "Islands (no neighbors): %d\n", len(res.Islands)); err != nil {
			return err
		}
	}

	g := res.Global
	if _, err := p.Fprintf(w, "Global Moran's I: %.6f (E[I]=%.6f, var=%.6f, z=%.4f, p=%.4g, %s)\n",
		g.I, g.Expected, g.Variance, g.ZScore, g.P, g.Assumption); err != nil {
		return err
	}

	counts := map[model.ClusterLabel]int{}
	for _, u := range res.Units {
		counts[u.Label]++
	}
	_, err := p.Fprintf(w, "Clusters: High-High=%d Low-Low=%d High-Low=%d Low-High=%d Not Significant=%d\n",
		counts[model.LabelHighHigh], counts[model.LabelLowLow],
		counts[model.LabelHighLow], counts[model.LabelLowHigh],
		counts[model.LabelNotSignificant])
	return err
}
