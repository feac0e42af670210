package deepgram

import "fmt"

type deepgramVoice string

const (
	VoiceThalia    deepgramVoice = "aura-2-thalia-en"
	VoiceAndromeda deepgramVoice = "aura-2-andromeda-en"
	VoiceHelena    deepgramVoice = "aura-2-helena-en"
	VoiceApollo    deepgramVoice = "aura-2-apollo-en"
	VoiceArcas     deepgramVoice = "aura-2-arcas-en"
	VoiceAsteria   deepgramVoice = "aura-asteria-en"
	VoiceOrion     deepgramVoice = "aura-orion-en"
)

const defaultVoice = VoiceThalia

// ParseVoice maps a voice model name to a known voice. An empty name selects
// the default voice.
func ParseVoice(name string) (deepgramVoice, error) {
	if name == "" {
		return defaultVoice, nil
	}
	for _, voice := range GetAvailableVoices() {
		if string(voice) == name {
			return voice, nil
		}
	}
	return defaultVoice, fmt.Errorf("unknown voice %q", name)
}

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceThalia,
		VoiceAndromeda,
		VoiceHelena,
		VoiceApollo,
		VoiceArcas,
		VoiceAsteria,
		VoiceOrion,
	}
}
