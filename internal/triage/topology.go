package triage

// Node identifiers of the triage graph.
const (
	NodeNormalize      NodeID = "normalize"
	NodeAudio          NodeID = "audio_interpretation"
	NodeVitals         NodeID = "vitals_interpretation"
	NodeSymptoms       NodeID = "symptom_interpretation"
	NodeSynthesis      NodeID = "synthesis"
	NodeRisk           NodeID = "risk"
	NodeRecommendation NodeID = "recommendation"
)

// buildGraph wires the fixed triage topology:
//
//	normalize -> {audio, vitals, symptoms} -> synthesis -> risk -> router -> recommendation
//
// The interpretation nodes are declared in that order, which is also the
// order their updates are merged in.
func buildGraph(rt *Runtime, routes map[RiskLevel]NodeID) (*Graph, error) {
	g := NewGraph(rt.log())

	nodes := []struct {
		id NodeID
		fn NodeFunc
	}{
		{NodeNormalize, normalizeNode(rt)},
		{NodeAudio, audioNode(rt)},
		{NodeVitals, vitalsNode(rt)},
		{NodeSymptoms, symptomsNode(rt)},
		{NodeSynthesis, synthesisNode(rt)},
		{NodeRisk, riskNode(rt)},
		{NodeRecommendation, recommendationNode(rt)},
	}
	for _, n := range nodes {
		if err := g.AddNode(n.id, n.fn); err != nil {
			return nil, err
		}
	}

	edges := [][2]NodeID{
		{NodeNormalize, NodeAudio},
		{NodeNormalize, NodeVitals},
		{NodeNormalize, NodeSymptoms},
		{NodeAudio, NodeSynthesis},
		{NodeVitals, NodeSynthesis},
		{NodeSymptoms, NodeSynthesis},
		{NodeSynthesis, NodeRisk},
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}

	router, err := NewRiskRouter(routes)
	if err != nil {
		return nil, err
	}
	if err := g.AddConditionalEdge(NodeRisk, router); err != nil {
		return nil, err
	}

	if err := g.SetEntry(NodeNormalize); err != nil {
		return nil, err
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	return g, nil
}
