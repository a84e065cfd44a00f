package output

import (
	"io"

	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "strace"

// prometheusRenderer writes the report in the text exposition format.
type prometheusRenderer struct{}

func (prometheusRenderer) Render(w io.Writer, rep *model.Report) error {
	dirLabels := []string{"directory"}
	age := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "directory_age_seconds",
		Help: "Span of observed activity in the directory.",
	}, dirLabels)
	total := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "directory_size_bytes",
		Help: "Bytes the trace proves the directory's touched files hold.",
	}, dirLabels)
	accessed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "directory_accessed_bytes",
		Help: "Bytes read from files in the directory.",
	}, dirLabels)
	modified := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "directory_modified_bytes",
		Help: "Bytes written to files in the directory.",
	}, dirLabels)
	lines := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "trace_lines",
		Help: "Trace lines by parse outcome.",
	}, []string{"state"})
	procs := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "trace_processes",
		Help: "Cloned processes by trace availability.",
	}, []string{"state"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(age, total, accessed, modified, lines, procs)

	for _, d := range rep.Directories {
		age.WithLabelValues(d.Path).Set(ageSeconds(d))
		total.WithLabelValues(d.Path).Set(float64(d.TotalBytes))
		accessed.WithLabelValues(d.Path).Set(float64(d.AccessedBytes))
		modified.WithLabelValues(d.Path).Set(float64(d.ModifiedBytes))
	}
	diag := rep.Diagnostics
	lines.WithLabelValues("total").Set(float64(diag.LinesTotal))
	lines.WithLabelValues("skipped").Set(float64(diag.LinesSkipped))
	lines.WithLabelValues("malformed").Set(float64(diag.LinesMalformed))
	procs.WithLabelValues("discovered").Set(float64(diag.ProcessesDiscovered))
	procs.WithLabelValues("missing_trace").Set(float64(diag.ProcessesMissingTrace))

	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
