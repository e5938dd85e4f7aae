package transcribe

import (
	"fmt"
	"strings"
)

// promptMode selects which instruction template is sent with the audio.
type promptMode int

const (
	// modeDirect asks the service to transcribe the audio on its own,
	// biased by the fixed proper-noun spelling list.
	modeDirect promptMode = iota
	// modeReference asks the service to align timings against a
	// caller-supplied transcript and use its wording verbatim.
	modeReference
)

// promptConfig captures the two-way branch in one value so each template
// can be built and tested independently of the HTTP call.
type promptConfig struct {
	mode          promptMode
	referenceText string
}

const (
	referenceBeginMarker = "---REFERENCE TRANSCRIPT BEGIN---"
	referenceEndMarker   = "---REFERENCE TRANSCRIPT END---"
)

// properNouns are domain spellings the direct prompt biases recognition
// toward. The service tends to mis-hear these as homophones otherwise.
var properNouns = []string{
	"天皇陛下",
	"皇后雅子さま",
	"愛子さま",
	"上皇さま",
	"上皇后美智子さま",
	"秋篠宮ご夫妻",
	"佳子さま",
	"悠仁さま",
	"紀子さま",
	"皇居",
	"京都御所",
}

func promptFor(referenceText string) promptConfig {
	if referenceText != "" {
		return promptConfig{mode: modeReference, referenceText: referenceText}
	}
	return promptConfig{mode: modeDirect}
}

func (p promptConfig) build() string {
	var sb strings.Builder

	switch p.mode {
	case modeReference:
		sb.WriteString("Transcribe the attached audio into time-aligned subtitle segments.\n")
		sb.WriteString("A reference transcript of this audio is provided between the markers below. ")
		sb.WriteString("It is the ground truth for wording: align your segments to the audio timings, ")
		sb.WriteString("but take every word, spelling, and punctuation mark from the reference text verbatim. ")
		sb.WriteString("Do not paraphrase, reorder, or omit any part of it.\n\n")
		sb.WriteString(referenceBeginMarker)
		sb.WriteString("\n")
		sb.WriteString(p.referenceText)
		sb.WriteString("\n")
		sb.WriteString(referenceEndMarker)
		sb.WriteString("\n")
	default:
		sb.WriteString("Transcribe the attached audio into time-aligned subtitle segments.\n")
		sb.WriteString("Write the transcript in the language spoken in the audio. ")
		sb.WriteString("The audio may mention the following names and terms; when you hear them, ")
		sb.WriteString("use exactly these spellings:\n")
		for _, noun := range properNouns {
			sb.WriteString(fmt.Sprintf("- %s\n", noun))
		}
	}

	sb.WriteString("\nReturn ONLY a JSON array. Each element must be an object with exactly three fields: ")
	sb.WriteString(`"start" (number, seconds from the beginning), "end" (number, seconds), and "text" (string). `)
	sb.WriteString("Segments must be in temporal order and each segment short enough to read as a subtitle.")

	return sb.String()
}
