package domain

// Diagnosis is the result of a crop-disease classification. It is never
// persisted; the classifier is an opaque remote service.
type Diagnosis struct {
	IsPlant           bool               `json:"isPlant"`
	PlantProbability  float64            `json:"plantProbability"`
	IsHealthy         bool               `json:"isHealthy"`
	HealthProbability float64            `json:"healthProbability"`
	Diseases          []DiseaseCandidate `json:"diseases"`
}

type DiseaseCandidate struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Description string  `json:"description"`
}
