package reporting

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/beevik/etree"
)

// JUnitReporter renders results as a JUnit XML document, one testsuite per
// feature in the order features were first seen.
type JUnitReporter struct {
	collector
	w io.WriteCloser
}

// NewJUnitReporter takes ownership of w.
func NewJUnitReporter(w io.WriteCloser) *JUnitReporter {
	return &JUnitReporter{w: w}
}

func (r *JUnitReporter) Write(result ScenarioResult) error { return r.add(result) }

func (r *JUnitReporter) Close() error {
	results, ok := r.drain()
	if !ok {
		return nil
	}
	doc := BuildJUnit(results)
	_, werr := doc.WriteTo(r.w)
	cerr := r.w.Close()
	if werr != nil {
		return fmt.Errorf("failed to write junit report: %w", werr)
	}
	return cerr
}

// BuildJUnit builds the XML document for results.
func BuildJUnit(results []ScenarioResult) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("testsuites")
	root.CreateAttr("name", "sauce-e2e")
	setCounts(root, Summarize(results))

	var order []string
	byFeature := map[string][]ScenarioResult{}
	for _, res := range results {
		if _, seen := byFeature[res.Feature]; !seen {
			order = append(order, res.Feature)
		}
		byFeature[res.Feature] = append(byFeature[res.Feature], res)
	}

	for _, feature := range order {
		group := byFeature[feature]
		suite := root.CreateElement("testsuite")
		suite.CreateAttr("name", feature)
		setCounts(suite, Summarize(group))

		for _, res := range group {
			tc := suite.CreateElement("testcase")
			tc.CreateAttr("classname", feature)
			tc.CreateAttr("name", res.Name)
			tc.CreateAttr("time", seconds(res.Duration))
			switch res.Status {
			case StatusPassed:
			case StatusFailed:
				failure := tc.CreateElement("failure")
				failure.CreateAttr("message", res.Error)
				failure.CreateAttr("type", "failure")
				failure.SetText(res.Error)
			default:
				skipped := tc.CreateElement("skipped")
				skipped.CreateAttr("message", string(res.Status))
			}
		}
	}

	doc.Indent(2)
	return doc
}

func setCounts(el *etree.Element, s Summary) {
	el.CreateAttr("tests", strconv.Itoa(s.Total))
	el.CreateAttr("failures", strconv.Itoa(s.Failed))
	el.CreateAttr("skipped", strconv.Itoa(s.Skipped))
	el.CreateAttr("time", seconds(s.Duration))
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
