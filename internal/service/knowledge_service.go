package service

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"science-mentor-go/pkg/log"
)

// KnowledgeConcept 是知识库中的一个术语条目。
type KnowledgeConcept struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// KnowledgeTopic 是知识库中的一个主题。
type KnowledgeTopic struct {
	Name      string             `json:"name"`
	MalayName string             `json:"malay_name"`
	Concepts  []KnowledgeConcept `json:"concepts"`
}

// TopicInfo 是 /topics 接口返回的主题摘要。
type TopicInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MalayName string `json:"malay_name"`
}

// topicKeywords 将主题映射到触发它的问题关键词。
var topicKeywords = map[string][]string{
	// Biology
	"cell_structure":     {"cell", "nucleus", "mitochondria", "organelle", "membrane", "chloroplast", "vacuole"},
	"cell_division":      {"mitosis", "meiosis", "division", "chromosome", "diploid", "haploid", "cell cycle"},
	"enzymes":            {"enzyme", "substrate", "catalyst", "amylase", "protease", "lipase", "denature", "metabolism"},
	"photosynthesis":     {"photosynthesis", "chlorophyll", "light", "glucose", "carbon dioxide"},
	"respiration":        {"respiration", "aerobic", "anaerobic", "atp", "energy", "krebs"},
	"diffusion_osmosis":  {"diffusion", "osmosis", "concentration", "hypotonic", "hypertonic", "transport"},
	"digestive_system":   {"digestion", "stomach", "intestine", "absorption", "food", "nutrition"},
	"circulatory_system": {"heart", "blood", "artery", "vein", "circulation", "hemoglobin"},
	"dna_genes":          {"dna", "gene", "chromosome", "protein", "replication", "mutation", "allele", "genotype"},
	"nervous_system":     {"neuron", "nerve", "brain", "synapse", "reflex", "impulse", "receptor"},
	"ecology":            {"ecosystem", "ecology", "food chain", "food web", "carbon cycle", "biodiversity"},
	"evolution":          {"evolution", "natural selection", "adaptation", "species", "darwin", "fossil"},
	// Physics
	"mechanics":      {"force", "velocity", "acceleration", "momentum", "newton", "motion", "inertia", "gravity"},
	"waves":          {"wave", "frequency", "wavelength", "sound", "oscillation", "reflection", "refraction"},
	"electricity":    {"electricity", "circuit", "voltage", "current", "resistance", "ohm", "capacitor"},
	"thermodynamics": {"heat", "temperature", "thermal", "conduction", "convection", "entropy"},
	"optics":         {"light", "lens", "mirror", "prism", "spectrum"},
	// Chemistry
	"atomic_structure":   {"atom", "electron", "proton", "neutron", "orbital", "shell", "periodic table"},
	"chemical_bonding":   {"bond", "covalent", "ionic", "electronegativity", "polarity"},
	"chemical_reactions": {"reaction", "catalyst", "equilibrium", "exothermic", "endothermic", "oxidation"},
	"acids_bases":        {"acid", "base", "ph", "titration", "neutralization", "indicator"},
	"organic_chemistry":  {"organic", "hydrocarbon", "alkane", "alkene", "alcohol", "polymer", "isomer"},
}

// KnowledgeService 在启动时加载静态知识库，为提问补充相关背景。
type KnowledgeService struct {
	topics map[string]KnowledgeTopic
}

// NewKnowledgeService 从 JSON 文件加载知识库。
// 文件缺失或损坏不是致命错误：记录日志并以空库继续运行。
func NewKnowledgeService(path string) *KnowledgeService {
	svc := &KnowledgeService{topics: map[string]KnowledgeTopic{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("知识库文件不可用 (%s): %v", path, err)
		return svc
	}

	var kb struct {
		Topics map[string]KnowledgeTopic `json:"topics"`
	}
	if err := json.Unmarshal(raw, &kb); err != nil {
		log.Errorf("知识库解析失败 (%s): %v", path, err)
		return svc
	}
	if kb.Topics != nil {
		svc.topics = kb.Topics
	}
	log.Infof("Loaded knowledge base with %d topics", len(svc.topics))
	return svc
}

// Topics 返回全部主题摘要，供 /topics 接口使用。
func (s *KnowledgeService) Topics() []TopicInfo {
	topics := make([]TopicInfo, 0, len(s.topics))
	for id, topic := range s.topics {
		name := topic.Name
		if name == "" {
			name = id
		}
		topics = append(topics, TopicInfo{ID: id, Name: name, MalayName: topic.MalayName})
	}
	return topics
}

// RelevantContext 根据问题关键词拼装相关背景文本，每个命中主题至多取 3 个概念。
func (s *KnowledgeService) RelevantContext(question string) string {
	lower := strings.ToLower(question)
	var parts []string

	for topicKey, keywords := range topicKeywords {
		if _, hit := matchKeyword(lower, keywords); !hit {
			continue
		}
		topic, ok := s.topics[topicKey]
		if !ok {
			continue
		}

		name := topic.Name
		if name == "" {
			name = topicKey
		}
		parts = append(parts, "Topic: "+name)

		concepts := topic.Concepts
		if len(concepts) > 3 {
			concepts = concepts[:3]
		}
		for _, concept := range concepts {
			if concept.Term != "" && concept.Definition != "" {
				parts = append(parts, fmt.Sprintf("- %s: %s", concept.Term, concept.Definition))
			}
		}
	}

	return strings.Join(parts, "\n")
}
