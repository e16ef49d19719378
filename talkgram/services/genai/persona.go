package genai

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona is the fixed product voice: who the assistant is, what it may talk
// about, how it refuses everything else, and the canned UI strings.
type Persona struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	AllowedTopics []string `yaml:"allowed_topics"`
	Refusal       string   `yaml:"refusal"`
	Style         string   `yaml:"style"`
	Greeting      string   `yaml:"greeting"`
	Apology       string   `yaml:"apology"`
	Fallback      string   `yaml:"fallback"`
}

// DefaultPersona returns the built-in TalkGram persona, used when no yaml
// file is configured or it fails to load.
func DefaultPersona() Persona {
	return Persona{
		Name:        "TalkGram",
		Description: "IA da NeoGram focada em negócios, ganhos e investimentos.",
		AllowedTopics: []string{
			"negócios e empreendedorismo",
			"formas de ganhar dinheiro",
			"investimentos e finanças pessoais",
			"uso de inteligência artificial para gerar renda",
		},
		Refusal:  "Se o assunto fugir desses temas, recuse educadamente e traga a conversa de volta.",
		Style:    "Responda em português, de forma direta e prática, em no máximo alguns parágrafos curtos.",
		Greeting: "Olá! Sou o TalkGram, IA da NeoGram focada em negócios, ganhos e investimentos. O que você quer alavancar hoje?",
		Apology:  "Tive um problema técnico ao responder. Tente novamente em alguns instantes.",
		Fallback: "Não consegui responder agora. Tente novamente.",
	}
}

// LoadPersona reads the persona yaml at path, falling back to the default
// persona when the file is absent or broken.
func LoadPersona(path string) Persona {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultPersona()
	}
	p := DefaultPersona()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return DefaultPersona()
	}
	return p
}

// Instruction flattens the persona into the instruction block sent ahead of
// every conversation.
func (p Persona) Instruction() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Você é %s. %s\n", p.Name, p.Description)
	if len(p.AllowedTopics) > 0 {
		sb.WriteString("Você só conversa sobre:\n")
		for _, t := range p.AllowedTopics {
			sb.WriteString("- " + t + "\n")
		}
	}
	if p.Refusal != "" {
		sb.WriteString(p.Refusal + "\n")
	}
	if p.Style != "" {
		sb.WriteString(p.Style)
	}
	return strings.TrimSpace(sb.String())
}
