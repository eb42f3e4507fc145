package service

import (
	"fmt"
	"strings"
)

// 各学科的关键词表，含马来语术语。命中即视为属于该学科。
var biologyKeywords = []string{
	// 细胞与细胞分裂
	"cell", "nucleus", "mitochondria", "ribosome", "membrane", "organelle",
	"chloroplast", "vacuole", "cytoplasm", "mitosis", "meiosis", "chromosome",
	"diploid", "haploid", "cell cycle",
	// 酶与代谢
	"enzyme", "substrate", "active site", "catalyst", "amylase", "protease",
	"lipase", "denature", "metabolism",
	// 光合作用与呼吸作用
	"photosynthesis", "chlorophyll", "glucose", "respiration", "aerobic",
	"anaerobic", "atp", "glycolysis", "fermentation",
	// 运输
	"diffusion", "osmosis", "hypotonic", "hypertonic", "isotonic",
	"active transport", "plasmolysis",
	// 人体系统
	"digestion", "stomach", "intestine", "liver", "pancreas", "absorption",
	"nutrition", "heart", "blood", "artery", "vein", "capillary", "circulation",
	"hemoglobin", "lung", "alveoli", "breathing", "neuron", "nerve", "synapse",
	"reflex", "brain", "spinal cord", "hormone", "insulin", "adrenaline",
	"endocrine", "homeostasis", "kidney", "nephron", "excretion",
	// 生殖与遗传
	"reproduction", "sperm", "fertilization", "embryo", "gamete",
	"dna", "gene", "replication", "transcription", "translation", "mutation",
	"allele", "genotype", "phenotype", "dominant", "recessive", "punnett",
	// 生态与进化
	"ecosystem", "ecology", "food chain", "food web", "producer", "consumer",
	"decomposer", "carbon cycle", "biodiversity", "habitat", "trophic",
	"evolution", "natural selection", "adaptation", "species", "darwin",
	// 生物技术与总称
	"biotechnology", "genetic engineering", "pcr", "cloning", "crispr",
	"biology", "biologi", "organism", "plant", "animal", "human body",
	"tissue", "organ",
	// 马来语
	"sel", "nukleus", "enzim", "fotosintesis", "respirasi", "pencernaan",
	"jantung", "darah", "saraf", "hormon", "pembiakan", "ekologi", "evolusi",
}

var physicsKeywords = []string{
	// 力学与能量
	"physics", "force", "velocity", "acceleration", "gravity", "newton",
	"momentum", "friction", "inertia", "motion", "kinetic energy",
	"potential energy", "joule", "displacement", "projectile", "vector",
	// 波
	"wave", "frequency", "wavelength", "amplitude", "oscillation", "sound",
	"ultrasound", "echo", "refraction", "diffraction", "interference",
	"longitudinal", "transverse", "hertz",
	// 电磁
	"electricity", "magnet", "circuit", "voltage", "current", "resistance",
	"ohm", "ampere", "volt", "capacitor", "transformer", "electromagnetic",
	"coulomb", "conductor", "insulator", "semiconductor", "diode",
	// 热学与光学
	"temperature", "heat", "thermal", "conduction", "convection", "radiation",
	"specific heat", "latent heat", "entropy", "thermodynamics", "kelvin",
	"light", "optics", "lens", "mirror", "prism", "spectrum", "photon", "laser",
	// 现代物理
	"quantum", "relativity", "einstein", "nuclear", "radioactive", "decay",
	"half-life", "fission", "fusion",
	// 马来语
	"fizik", "daya", "halaju", "pecutan", "graviti", "gelombang", "elektrik",
	"litar", "voltan", "arus", "rintangan", "haba", "cahaya", "optik", "tenaga",
}

var chemistryKeywords = []string{
	// 原子结构与键合
	"chemistry", "atom", "molecule", "element", "compound", "electron",
	"proton", "neutron", "ion", "isotope", "atomic number", "orbital",
	"valence", "periodic table", "bond", "covalent", "ionic", "metallic",
	"electronegativity", "polarity",
	// 反应
	"reaction", "reactant", "product", "equilibrium", "exothermic",
	"endothermic", "combustion", "neutralization", "oxidation", "reduction",
	"redox", "precipitate",
	// 酸碱与物态
	"acid", "base", "alkali", "ph", "indicator", "titration", "buffer",
	"hydrochloric", "sulfuric", "sodium hydroxide", "solid", "liquid", "gas",
	"sublimation", "evaporation", "condensation", "state of matter",
	// 溶液与有机
	"solution", "solute", "solvent", "molarity", "solubility", "organic",
	"carbon", "hydrocarbon", "alkane", "alkene", "alcohol", "carboxylic",
	"ester", "polymer", "monomer", "isomer", "functional group", "ethanol",
	// 电化学与化学计量
	"electrolysis", "electrode", "anode", "cathode", "electrolyte",
	"galvanic", "mole", "avogadro", "stoichiometry", "empirical formula",
	"limiting reagent",
	// 马来语
	"kimia", "molekul", "unsur", "sebatian", "tindak balas", "asid", "bes",
	"garam", "larutan", "elektrolisis", "ikatan",
}

// 明确排除在范围外的话题。
var offTopicKeywords = []string{
	"math", "mathematics", "algebra", "geometry", "calculus",
	"probability", "statistics",
	"hack", "cheat", "answer key", "exam answers",
}

var mathKeywords = map[string]bool{
	"math": true, "mathematics": true, "algebra": true,
	"geometry": true, "calculus": true,
}

// SubjectFilter 基于关键词判定问题是否属于会话选定的学科范围。
type SubjectFilter struct {
	subjectKeywords map[string][]string
}

// NewSubjectFilter 创建一个新的 SubjectFilter 实例。
func NewSubjectFilter() *SubjectFilter {
	return &SubjectFilter{
		subjectKeywords: map[string][]string{
			"Biology":   biologyKeywords,
			"Physics":   physicsKeywords,
			"Chemistry": chemistryKeywords,
		},
	}
}

// ValidateScope 检查问题是否符合当前学科范围。
// 返回是否放行以及不放行时给学生的引导消息。
// guided 表示处于引导模式：学生在回答导师的检查性问题，放宽学科关键词校验。
func (f *SubjectFilter) ValidateScope(question, subject string, guided bool) (bool, string) {
	lower := strings.ToLower(question)

	// 无论何种模式，越界话题一律拦截
	if keyword, hit := matchKeyword(lower, offTopicKeywords); hit {
		if subject != "" {
			return false, fmt.Sprintf(
				"I notice you're asking about %s. You are currently in **%s Mode**. Please ask a %s question or switch subjects!",
				strings.Title(keyword), subject, subject)
		}
		if mathKeywords[keyword] {
			return false, fmt.Sprintf(
				"I notice you're asking about %s. I'm SCIENCEMENTOR, your Science tutor! 🔬 I can help with Biology, Physics, and Chemistry topics. Do you have any Science questions?",
				strings.Title(keyword))
		}
		return false, "I'm here to help you learn and understand Science, not to provide exam answers. Let me explain concepts so you can answer questions on your own! What Science topic would you like to learn about?"
	}

	// 引导模式下学生可能只回答 "yes" 或一个数值，跳过学科校验
	if guided {
		return true, ""
	}

	if subject == "" {
		return f.isScienceQuestion(question)
	}

	subject = strings.Title(strings.ToLower(subject))
	keywords, known := f.subjectKeywords[subject]
	if !known {
		return f.isScienceQuestion(question)
	}

	if _, hit := matchKeyword(lower, keywords); hit {
		return true, ""
	}

	if len(strings.Fields(question)) < 3 {
		return false, fmt.Sprintf(
			"Could you please ask a more specific **%s** question? I am currently focused on %s topics.",
			subject, subject)
	}

	// 命中其他学科时提示切换
	for otherSubject, otherKeywords := range f.subjectKeywords {
		if otherSubject == subject {
			continue
		}
		if _, hit := matchKeyword(lower, otherKeywords); hit {
			return false, fmt.Sprintf(
				"That sounds like a **%s** question! You are currently in **%s Mode**. Please change the subject to %s to ask this question.",
				otherSubject, subject, otherSubject)
		}
	}

	return false, fmt.Sprintf(
		"I notice you're asking a question that doesn't seem to be about %s. I'm SCIENCEMENTOR, and I'm strictly focused on Science topics! 🔬 Please ask me about Biology, Physics, or Chemistry.",
		subject)
}

// isScienceQuestion 在没有选定学科时做总体范围判定。
func (f *SubjectFilter) isScienceQuestion(question string) (bool, string) {
	lower := strings.ToLower(question)

	for _, keywords := range f.subjectKeywords {
		if _, hit := matchKeyword(lower, keywords); hit {
			return true, ""
		}
	}

	if len(strings.Fields(question)) < 3 {
		return false, "Could you please ask a more specific Science question? I can help with topics like:\n🧬 **Biology**: Cells, DNA, human body systems, ecology\n⚡ **Physics**: Forces, waves, electricity, energy\n🧪 **Chemistry**: Atoms, reactions, acids & bases, organic chemistry"
	}

	return false, "I'm sorry, but I can only answer questions about Physics, Biology, and Chemistry. Please ask a Science-related question! 🔬"
}

func matchKeyword(lowerQuestion string, keywords []string) (string, bool) {
	for _, keyword := range keywords {
		if strings.Contains(lowerQuestion, keyword) {
			return keyword, true
		}
	}
	return "", false
}
