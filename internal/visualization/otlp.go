package visualization

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"go.opentelemetry.io/collector/pdata/pcommon"
	plog "go.opentelemetry.io/collector/pdata/plog"
	pmetric "go.opentelemetry.io/collector/pdata/pmetric"
	ptrace "go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/jwafle/pubtail/internal/telemetry"
)

// maxCellWidth bounds free-text cells such as log bodies.
const maxCellWidth = 60

const timeLayout = "15:04:05.000"

var tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

// Table is a presentation of OTLP records as rows.
type Table struct {
	Headers []string
	Rows    [][]string
	Fault   string
	Raw     string
}

// projector decodes one OTLP signal into table rows.
type projector func(data []byte) (Table, error)

// OTLPViewModel presents an OTLP/JSON payload of one signal as a table.
type OTLPViewModel struct {
	src     telemetry.Source
	project projector
}

func (vm *OTLPViewModel) Presentation() Table {
	msg := current(vm.src)
	if msg == nil {
		return Table{Fault: "no message"}
	}
	t, err := vm.project(msg.Bytes)
	if err != nil {
		return Table{Fault: "invalid otlp: " + err.Error(), Raw: sanitize(string(msg.Bytes))}
	}
	return t
}

func NewOTLPLogsViewModel(src telemetry.Source) *OTLPViewModel {
	return &OTLPViewModel{src: src, project: projectLogs}
}

func NewOTLPMetricsViewModel(src telemetry.Source) *OTLPViewModel {
	return &OTLPViewModel{src: src, project: projectMetrics}
}

func NewOTLPTracesViewModel(src telemetry.Source) *OTLPViewModel {
	return &OTLPViewModel{src: src, project: projectTraces}
}

func projectLogs(data []byte) (Table, error) {
	logs, err := (&plog.JSONUnmarshaler{}).UnmarshalLogs(data)
	if err != nil {
		return Table{}, err
	}
	t := Table{Headers: []string{"Time", "Service", "Severity", "Body"}}
	for i := 0; i < logs.ResourceLogs().Len(); i++ {
		rl := logs.ResourceLogs().At(i)
		service := serviceName(rl.Resource())
		for j := 0; j < rl.ScopeLogs().Len(); j++ {
			records := rl.ScopeLogs().At(j).LogRecords()
			for k := 0; k < records.Len(); k++ {
				lr := records.At(k)
				ts := lr.Timestamp()
				if ts == 0 {
					ts = lr.ObservedTimestamp()
				}
				severity := lr.SeverityText()
				if severity == "" {
					severity = lr.SeverityNumber().String()
				}
				t.Rows = append(t.Rows, []string{stamp(ts), service, severity, cell(lr.Body().AsString())})
			}
		}
	}
	return t, nil
}

func projectMetrics(data []byte) (Table, error) {
	metrics, err := (&pmetric.JSONUnmarshaler{}).UnmarshalMetrics(data)
	if err != nil {
		return Table{}, err
	}
	t := Table{Headers: []string{"Service", "Metric", "Type", "Unit", "Points"}}
	for i := 0; i < metrics.ResourceMetrics().Len(); i++ {
		rm := metrics.ResourceMetrics().At(i)
		service := serviceName(rm.Resource())
		for j := 0; j < rm.ScopeMetrics().Len(); j++ {
			ms := rm.ScopeMetrics().At(j).Metrics()
			for k := 0; k < ms.Len(); k++ {
				m := ms.At(k)
				t.Rows = append(t.Rows, []string{
					service, cell(m.Name()), m.Type().String(), m.Unit(), strconv.Itoa(dataPoints(m)),
				})
			}
		}
	}
	return t, nil
}

func dataPoints(m pmetric.Metric) int {
	switch m.Type() {
	case pmetric.MetricTypeGauge:
		return m.Gauge().DataPoints().Len()
	case pmetric.MetricTypeSum:
		return m.Sum().DataPoints().Len()
	case pmetric.MetricTypeHistogram:
		return m.Histogram().DataPoints().Len()
	case pmetric.MetricTypeExponentialHistogram:
		return m.ExponentialHistogram().DataPoints().Len()
	case pmetric.MetricTypeSummary:
		return m.Summary().DataPoints().Len()
	default:
		return 0
	}
}

func projectTraces(data []byte) (Table, error) {
	traces, err := (&ptrace.JSONUnmarshaler{}).UnmarshalTraces(data)
	if err != nil {
		return Table{}, err
	}
	t := Table{Headers: []string{"Service", "Trace", "Span", "Name", "Kind", "Duration", "Status"}}
	for i := 0; i < traces.ResourceSpans().Len(); i++ {
		rs := traces.ResourceSpans().At(i)
		service := serviceName(rs.Resource())
		for j := 0; j < rs.ScopeSpans().Len(); j++ {
			spans := rs.ScopeSpans().At(j).Spans()
			for k := 0; k < spans.Len(); k++ {
				s := spans.At(k)
				traceID, spanID := s.TraceID(), s.SpanID()
				var dur time.Duration
				if s.EndTimestamp() >= s.StartTimestamp() {
					dur = s.EndTimestamp().AsTime().Sub(s.StartTimestamp().AsTime())
				}
				t.Rows = append(t.Rows, []string{
					service,
					hex.EncodeToString(traceID[:]),
					hex.EncodeToString(spanID[:]),
					cell(s.Name()),
					s.Kind().String(),
					dur.String(),
					s.Status().Code().String(),
				})
			}
		}
	}
	return t, nil
}

func serviceName(r pcommon.Resource) string {
	if v, ok := r.Attributes().Get("service.name"); ok {
		return cell(v.AsString())
	}
	return "-"
}

func stamp(ts pcommon.Timestamp) string {
	if ts == 0 {
		return "-"
	}
	return ts.AsTime().UTC().Format(timeLayout)
}

func cell(s string) string {
	s = strings.Join(strings.Fields(sanitize(s)), " ")
	return ansi.Truncate(s, maxCellWidth, "…")
}

func renderTable(t Table, width int) []string {
	if t.Fault != "" {
		return renderDocument(Document{Fault: t.Fault, Text: t.Raw}, width)
	}
	if len(t.Rows) == 0 {
		return []string{Placeholder("no records")}
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers(t.Headers...).
		Rows(t.Rows...)
	return strings.Split(tbl.Render(), "\n")
}

func NewOTLPLogsView(src telemetry.Source) View {
	return NewView(telemetry.TagOTLPLogs, NewOTLPLogsViewModel(src), renderTable)
}

func NewOTLPMetricsView(src telemetry.Source) View {
	return NewView(telemetry.TagOTLPMetrics, NewOTLPMetricsViewModel(src), renderTable)
}

func NewOTLPTracesView(src telemetry.Source) View {
	return NewView(telemetry.TagOTLPTraces, NewOTLPTracesViewModel(src), renderTable)
}
