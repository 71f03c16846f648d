package ir

// Metadata is the round-trip fidelity side channel. The importer captures
// everything the exporter needs to serialize unedited structure back
// byte-identically; nothing in here ever affects semantics.
type Metadata struct {
	// DiagramXML is the original bpmndi:BPMNDiagram block, byte for byte.
	// When present the exporter re-emits it verbatim.
	DiagramXML string `json:"diagram_xml,omitempty"`

	// StartID and EndID are the original element ids of the top-level start
	// and end events.
	StartID string `json:"start_id,omitempty"`
	EndID   string `json:"end_id,omitempty"`

	// StageEvents maps a subprocess stage id (or a foreach step id) to the
	// original ids of its inner start and end events.
	StageEvents map[string]StageEvents `json:"stage_events,omitempty"`

	// Flows records original sequence-flow ids keyed by their endpoints so
	// unedited flows keep their ids on export.
	Flows []FlowRef `json:"flows,omitempty"`

	// DocAttrs captures document-level attributes of the definitions
	// element (id, targetNamespace, exporter, exporterVersion, ...).
	DocAttrs map[string]string `json:"doc_attrs,omitempty"`
}

// StageEvents holds the captured inner start/end event ids of one
// subprocess container.
type StageEvents struct {
	StartID string `json:"start_id,omitempty"`
	EndID   string `json:"end_id,omitempty"`
}

// FlowRef is one captured sequence flow: its original id and endpoint
// element ids.
type FlowRef struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// FlowID returns the captured flow id for the given endpoints, or "" when
// the flow was not part of the imported document.
func (m *Metadata) FlowID(source, target string) string {
	if m == nil {
		return ""
	}
	for _, f := range m.Flows {
		if f.Source == source && f.Target == target {
			return f.ID
		}
	}
	return ""
}

// StageEventIDs returns the captured inner start/end ids for a container,
// or zero values when none were captured.
func (m *Metadata) StageEventIDs(ownerID string) StageEvents {
	if m == nil {
		return StageEvents{}
	}
	return m.StageEvents[ownerID]
}
