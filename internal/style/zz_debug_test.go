package style

import (
	"strings"
	"testing"

	"github.com/pdiddy/camera-ready/pkg/types"
)

func TestZZDebugDumpRefs(t *testing.T) {
	r := NewRenderer(builtin(t, "springer_lncs"), types.DefaultSettings())
	doc, err := r.Render(sampleParsed(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	xml := documentXML(t, doc)
	i := strings.Index(xml, "[1]")
	if i < 0 {
		t.Fatal("no [1] found")
	}
	end := i + 1200
	if end > len(xml) {
		end = len(xml)
	}
	t.Logf("REFS XML:\n%s", xml[i-100:end])
}
