package spec

import (
	"fmt"
	"os"

	"grid-harness/config"
	"grid-harness/core/models"
	"grid-harness/core/transport"

	"gopkg.in/yaml.v3"
)

// Scenario is one verification scenario: the cluster to form and the job to
// run against it
type Scenario struct {
	Name            string
	Cluster         models.ClusterSpec
	Algorithm       models.AlgorithmKind
	DatasetPath     string
	TargetColumn    string
	Score           bool
	Validate        bool // pass the training frame as the validation frame
	Hyperparameters map[string]string
}

// ScenarioFile is the YAML shape of a scenario spec
type ScenarioFile struct {
	Scenario struct {
		Name            string            `yaml:"name"`
		Algorithm       string            `yaml:"algorithm"`
		Nodes           int               `yaml:"nodes"`
		TLSConfig       string            `yaml:"tls_config,omitempty"`
		Dataset         string            `yaml:"dataset"`
		TargetColumn    string            `yaml:"target_column"`
		Score           bool              `yaml:"score"`
		Validate        bool              `yaml:"validate,omitempty"`
		Hyperparameters map[string]string `yaml:"hyperparameters,omitempty"`
	} `yaml:"scenario"`
}

// ParseScenario parses a YAML scenario spec
func ParseScenario(raw []byte) (*Scenario, error) {
	var file ScenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	s := file.Scenario
	if s.Nodes < 1 {
		return nil, fmt.Errorf("scenario needs at least 1 node, got %d", s.Nodes)
	}

	algorithm := models.AlgorithmKind(s.Algorithm)
	switch algorithm {
	case models.AlgorithmGBM, models.AlgorithmDeepLearning:
	default:
		return nil, fmt.Errorf("unknown algorithm %q", s.Algorithm)
	}

	mode, ref := transport.Resolve(s.TLSConfig)
	return &Scenario{
		Name:            s.Name,
		Cluster:         models.ClusterSpec{Nodes: s.Nodes, Transport: mode, TLSConfigRef: ref},
		Algorithm:       algorithm,
		DatasetPath:     s.Dataset,
		TargetColumn:    s.TargetColumn,
		Score:           s.Score,
		Validate:        s.Validate,
		Hyperparameters: s.Hyperparameters,
	}, nil
}

// LoadScenario reads and parses a scenario spec file
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	return ParseScenario(raw)
}

// Builtin returns one of the two canonical verification scenarios. The
// tlsConfigRef selects the transport: empty means plaintext.
func Builtin(name string, cfg *config.Config, tlsConfigRef string) (*Scenario, error) {
	mode, ref := transport.Resolve(tlsConfigRef)
	clusterSpec := models.ClusterSpec{Nodes: cfg.NodeCount, Transport: mode, TLSConfigRef: ref}

	switch name {
	case "gbm":
		// single scoring-enabled tree over the two-column regression set
		return &Scenario{
			Name:         "gbm",
			Cluster:      clusterSpec,
			Algorithm:    models.AlgorithmGBM,
			DatasetPath:  cfg.RegressionDataset,
			TargetColumn: "response",
			Score:        true,
			Hyperparameters: map[string]string{
				"ntrees":     "1",
				"max_depth":  "1",
				"min_rows":   "1",
				"nbins":      "20",
				"learn_rate": "1.0",
			},
		}, nil
	case "dl":
		// the classifier validates against the frame it trained on
		return &Scenario{
			Name:         "dl",
			Cluster:      clusterSpec,
			Algorithm:    models.AlgorithmDeepLearning,
			DatasetPath:  cfg.ClassificationDataset,
			TargetColumn: "survived",
			Score:        false,
			Validate:     true,
			Hyperparameters: map[string]string{
				"hidden": "20,20",
				"seed":   "0xdecaf",
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown scenario %q (want gbm or dl)", name)
	}
}
