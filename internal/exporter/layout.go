package exporter

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Auto-layout geometry. A left-to-right chain of fixed-size shapes on a
// shared centerline; subprocess containers widen to hold their own inner
// chain. All coordinates are a pure function of the node tree.
const (
	layoutOriginX   = 160
	layoutCenterY   = 120
	layoutGap       = 50
	layoutMargin    = 30
	eventSize       = 36
	gatewaySize     = 50
	taskWidth       = 100
	taskHeight      = 80
	containerHeight = 160
)

type shape struct {
	id       string
	x, y     int
	w, h     int
	expanded bool
}

type layoutEdge struct {
	id             string
	x1, y1, x2, y2 int
}

// autoLayout computes the diagram block for a process without a captured
// layout. Same node tree in, same bytes out.
func autoLayout(processID string, proc *xmlProcess) string {
	shapes := map[string]*shape{}
	var order []string

	var flows []*xmlSequenceFlow
	collectFlows(proc.Nodes, &flows)

	place(proc.Nodes, layoutOriginX, layoutCenterY, shapes, &order)

	var edges []layoutEdge
	for _, f := range flows {
		src, okS := shapes[f.SourceRef]
		dst, okT := shapes[f.TargetRef]
		if !okS || !okT {
			continue
		}
		edges = append(edges, layoutEdge{
			id: f.ID,
			x1: src.x + src.w, y1: src.y + src.h/2,
			x2: dst.x, y2: dst.y + dst.h/2,
		})
	}

	var b strings.Builder
	b.WriteString(`<bpmndi:BPMNDiagram id="BPMNDiagram_1">` + "\n")
	fmt.Fprintf(&b, "    <bpmndi:BPMNPlane id=\"BPMNPlane_1\" bpmnElement=\"%s\">\n", processID)
	for _, id := range order {
		s := shapes[id]
		fmt.Fprintf(&b, "      <bpmndi:BPMNShape id=\"%s_di\" bpmnElement=\"%s\"", s.id, s.id)
		if s.expanded {
			b.WriteString(` isExpanded="true"`)
		}
		b.WriteString(">\n")
		fmt.Fprintf(&b, "        <dc:Bounds x=\"%d\" y=\"%d\" width=\"%d\" height=\"%d\" />\n", s.x, s.y, s.w, s.h)
		b.WriteString("      </bpmndi:BPMNShape>\n")
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "      <bpmndi:BPMNEdge id=\"%s_di\" bpmnElement=\"%s\">\n", e.id, e.id)
		fmt.Fprintf(&b, "        <di:waypoint x=\"%d\" y=\"%d\" />\n", e.x1, e.y1)
		fmt.Fprintf(&b, "        <di:waypoint x=\"%d\" y=\"%d\" />\n", e.x2, e.y2)
		b.WriteString("      </bpmndi:BPMNEdge>\n")
	}
	b.WriteString("    </bpmndi:BPMNPlane>\n")
	b.WriteString("  </bpmndi:BPMNDiagram>")
	return b.String()
}

// place walks a node list left to right, assigning bounds. Containers
// recurse into their children first to learn their own width. Boundary
// events sit on their host's bottom edge and claim no horizontal room.
func place(nodes []any, x, centerY int, shapes map[string]*shape, order *[]string) int {
	for _, n := range nodes {
		node, ok := n.(*xmlNode)
		if !ok {
			continue
		}
		if host := attrValue(node.Attrs, "attachedToRef"); host != "" {
			if hs, ok := shapes[host]; ok {
				s := &shape{
					id: node.ID,
					x:  hs.x + hs.w/2 - eventSize/2,
					y:  hs.y + hs.h - eventSize/2,
					w:  eventSize, h: eventSize,
				}
				shapes[node.ID] = s
				*order = append(*order, node.ID)
			}
			continue
		}

		w, h := shapeSize(node)
		s := &shape{id: node.ID, w: w, h: h}

		if len(node.Children) > 0 || node.XMLName.Local == "bpmn:subProcess" {
			s.expanded = true
			s.h = containerHeight
			s.x = x
			s.y = centerY - s.h/2
			innerEnd := place(node.Children, x+layoutMargin, centerY, shapes, order)
			s.w = innerEnd - x - layoutGap + layoutMargin
			if s.w < taskWidth {
				s.w = taskWidth
			}
		} else {
			s.x = x
			s.y = centerY - h/2
		}

		shapes[node.ID] = s
		*order = append(*order, node.ID)
		x = s.x + s.w + layoutGap
	}
	return x
}

func shapeSize(node *xmlNode) (int, int) {
	switch {
	case strings.HasSuffix(node.XMLName.Local, "Event"):
		return eventSize, eventSize
	case strings.HasSuffix(node.XMLName.Local, "Gateway"):
		return gatewaySize, gatewaySize
	default:
		return taskWidth, taskHeight
	}
}

func collectFlows(nodes []any, flows *[]*xmlSequenceFlow) {
	for _, n := range nodes {
		switch t := n.(type) {
		case *xmlSequenceFlow:
			*flows = append(*flows, t)
		case *xmlNode:
			collectFlows(t.Children, flows)
		}
	}
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
