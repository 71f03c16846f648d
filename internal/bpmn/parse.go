package bpmn

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse decodes BPMN document bytes into the element model. It fails on
// malformed XML; a missing process container is the importer's concern.
func Parse(data []byte) (*Definitions, error) {
	defs := &Definitions{
		Attrs:      map[string]string{},
		DiagramXML: extractDiagram(data),
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	rootSeen := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !rootSeen {
			if se.Name.Local != "definitions" {
				return nil, fmt.Errorf("unexpected root element <%s>, want <definitions>", se.Name.Local)
			}
			rootSeen = true
			for _, a := range se.Attr {
				defs.Attrs[attrKey(a.Name)] = a.Value
			}
			continue
		}

		switch se.Name.Local {
		case "process":
			proc, err := parseElement(dec, se)
			if err != nil {
				return nil, err
			}
			defs.Processes = append(defs.Processes, proc)
		case "message":
			defs.Messages = append(defs.Messages, parseNamed(se))
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("malformed XML: %w", err)
			}
		case "signal":
			defs.Signals = append(defs.Signals, parseNamed(se))
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("malformed XML: %w", err)
			}
		case "error":
			defs.Errors = append(defs.Errors, parseNamed(se))
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("malformed XML: %w", err)
			}
		default:
			// BPMNDiagram was captured raw; everything else at this level
			// is bookkeeping.
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("malformed XML: %w", err)
			}
		}
	}

	if !rootSeen {
		return nil, fmt.Errorf("no definitions element found")
	}
	return defs, nil
}

func parseNamed(se xml.StartElement) Named {
	var n Named
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "id":
			n.ID = a.Value
		case "name":
			n.Name = a.Value
		case "errorCode":
			n.Code = a.Value
		}
	}
	return n
}

// parseElement decodes one flow element and, for containers, its children
// in document order.
func parseElement(dec *xml.Decoder, se xml.StartElement) (*Element, error) {
	el := &Element{
		Type: se.Name.Local,
		Attr: map[string]string{},
	}

	for _, a := range se.Attr {
		key := attrKey(a.Name)
		el.Attr[key] = a.Value
		switch key {
		case "id":
			el.ID = a.Value
		case "name":
			el.Name = a.Value
		case "sourceRef":
			el.SourceRef = a.Value
		case "targetRef":
			el.TargetRef = a.Value
		case "default":
			el.Default = a.Value
		case "attachedToRef":
			el.AttachedToRef = a.Value
		case "cancelActivity":
			el.CancelActivity = a.Value
		case "calledElement":
			el.CalledElement = a.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed XML inside <%s>: %w", el.Type, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == se.Name.Local {
				return el, nil
			}
		case xml.StartElement:
			if err := parseElementChild(dec, el, t); err != nil {
				return nil, err
			}
		}
	}
}

func parseElementChild(dec *xml.Decoder, el *Element, se xml.StartElement) error {
	local := se.Name.Local
	switch {
	case local == "documentation":
		text, err := readText(dec, se)
		if err != nil {
			return err
		}
		el.Documentation = text
		return nil

	case local == "conditionExpression":
		text, err := readText(dec, se)
		if err != nil {
			return err
		}
		el.Condition = strings.TrimSpace(text)
		return nil

	case local == "script":
		text, err := readText(dec, se)
		if err != nil {
			return err
		}
		el.ScriptBody = strings.TrimSpace(text)
		return nil

	case local == "extensionElements":
		ext, err := parseExtensions(dec, se)
		if err != nil {
			return err
		}
		el.Extensions = ext
		return nil

	case local == "multiInstanceLoopCharacteristics":
		mi, err := parseMultiInstance(dec, se)
		if err != nil {
			return err
		}
		el.MultiInstance = mi
		return nil

	case strings.HasSuffix(local, "EventDefinition"):
		def, err := parseEventDefinition(dec, se)
		if err != nil {
			return err
		}
		el.Events = append(el.Events, def)
		return nil

	case local == "incoming" || local == "outgoing":
		return dec.Skip()

	case IsFlowNode(local):
		child, err := parseElement(dec, se)
		if err != nil {
			return err
		}
		el.Children = append(el.Children, child)
		return nil

	default:
		return dec.Skip()
	}
}

func parseEventDefinition(dec *xml.Decoder, se xml.StartElement) (EventDefinition, error) {
	def := EventDefinition{
		Kind: strings.TrimSuffix(se.Name.Local, "EventDefinition"),
	}
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "messageRef", "signalRef", "errorRef", "escalationRef":
			def.Ref = a.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return def, fmt.Errorf("malformed XML inside <%s>: %w", se.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == se.Name.Local {
				return def, nil
			}
		case xml.StartElement:
			text, err := readText(dec, t)
			if err != nil {
				return def, err
			}
			switch t.Name.Local {
			case "timeCycle":
				def.TimeCycle = strings.TrimSpace(text)
			case "timeDate":
				def.TimeDate = strings.TrimSpace(text)
			case "timeDuration":
				def.TimeDuration = strings.TrimSpace(text)
			}
		}
	}
}

func parseMultiInstance(dec *xml.Decoder, se xml.StartElement) (*MultiInstance, error) {
	mi := &MultiInstance{}
	for _, a := range se.Attr {
		switch attrKey(a.Name) {
		case "isSequential":
			mi.Sequential = a.Value == "true"
		case "camunda:collection":
			mi.Collection = a.Value
		case "camunda:elementVariable":
			mi.ElementVariable = a.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed XML inside <%s>: %w", se.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == se.Name.Local {
				return mi, nil
			}
		case xml.StartElement:
			if t.Name.Local == "completionCondition" {
				text, err := readText(dec, t)
				if err != nil {
					return nil, err
				}
				mi.CompletionCondition = strings.TrimSpace(text)
			} else if err := dec.Skip(); err != nil {
				return nil, err
			}
		}
	}
}

func parseExtensions(dec *xml.Decoder, se xml.StartElement) (*Extensions, error) {
	ext := &Extensions{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed XML inside <extensionElements>: %w", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == se.Name.Local {
				return ext, nil
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "inputOutput":
				if err := parseInputOutput(dec, t, ext); err != nil {
					return nil, err
				}
			case "in":
				ext.In = append(ext.In, parseIOBinding(t))
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case "out":
				ext.Out = append(ext.Out, parseIOBinding(t))
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		}
	}
}

func parseInputOutput(dec *xml.Decoder, se xml.StartElement, ext *Extensions) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("malformed XML inside <inputOutput>: %w", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == se.Name.Local {
				return nil
			}
		case xml.StartElement:
			var name string
			for _, a := range t.Attr {
				if a.Name.Local == "name" {
					name = a.Value
				}
			}
			text, err := readText(dec, t)
			if err != nil {
				return err
			}
			param := Param{Name: name, Value: strings.TrimSpace(text)}
			switch t.Name.Local {
			case "inputParameter":
				ext.Inputs = append(ext.Inputs, param)
			case "outputParameter":
				ext.Outputs = append(ext.Outputs, param)
			}
		}
	}
}

func parseIOBinding(se xml.StartElement) IOBinding {
	var b IOBinding
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "source":
			b.Source = a.Value
		case "sourceExpression":
			b.SourceExpression = a.Value
		case "target":
			b.Target = a.Value
		case "variables":
			b.Variables = a.Value
		}
	}
	return b
}

// readText collects character data until the element closes. Nested
// elements are skipped.
func readText(dec *xml.Decoder, se xml.StartElement) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("malformed XML inside <%s>: %w", se.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name.Local == se.Name.Local {
				return b.String(), nil
			}
		case xml.StartElement:
			if err := dec.Skip(); err != nil {
				return "", err
			}
		}
	}
}

// attrKey renders an attribute name the way the document writes it:
// camunda attributes as camunda:<local>, xmlns declarations as
// xmlns:<prefix>, everything else by local name.
func attrKey(name xml.Name) string {
	switch name.Space {
	case NSCamunda:
		return "camunda:" + name.Local
	case "xmlns":
		return "xmlns:" + name.Local
	case NSXSI:
		return "xsi:" + name.Local
	default:
		return name.Local
	}
}

// extractDiagram returns the raw bytes of the first bpmndi:BPMNDiagram
// block, element tags included, or "" when none exists.
func extractDiagram(data []byte) string {
	start := bytes.Index(data, []byte("<bpmndi:BPMNDiagram"))
	if start < 0 {
		return ""
	}
	rest := data[start:]

	// Self-closing block.
	if gt := bytes.IndexByte(rest, '>'); gt > 0 && rest[gt-1] == '/' {
		closeTag := bytes.Index(rest, []byte("</bpmndi:BPMNDiagram>"))
		if closeTag < 0 || gt < closeTag {
			return string(rest[:gt+1])
		}
	}

	end := bytes.Index(rest, []byte("</bpmndi:BPMNDiagram>"))
	if end < 0 {
		return ""
	}
	return string(rest[:end+len("</bpmndi:BPMNDiagram>")])
}
