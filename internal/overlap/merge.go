package overlap

import (
	"strings"
	"unicode"

	"caption-core/internal/config"
	"caption-core/internal/models"
)

// Language is the script/language family mergeBrokenSentences rules
// key off of. "Auto" detects the script from the combined text.
type Language string

const (
	LanguageChinese  Language = "zh"
	LanguageEnglish  Language = "en"
	LanguageJapanese Language = "ja"
	LanguageKorean   Language = "ko"
	LanguageEuropean Language = "eu"
	LanguageAuto     Language = "auto"
)

var englishAbbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "etc": true, "e.g": true, "i.e": true,
	"vs": true, "ph.d": true,
}

// MergeBrokenSentences walks adjacent segments and merges pairs that
// shouldMerge approves, concatenating text (space-joined) and unioning
// time ranges.
func MergeBrokenSentences(cfg config.OverlapConfig, segs []models.Segment, language Language) []models.Segment {
	if len(segs) == 0 {
		return segs
	}
	resolved := language
	if resolved == LanguageAuto {
		resolved = detectScript(joinTexts(segs))
	}

	out := make([]models.Segment, 0, len(segs))
	out = append(out, segs[0])

	for i := 1; i < len(segs); i++ {
		prev := &out[len(out)-1]
		next := segs[i]
		if shouldMerge(*prev, next, resolved, cfg.MergeTimeGapSec) {
			prev.Text = prev.Text + " " + next.Text
			if next.EndSec > prev.EndSec {
				prev.EndSec = next.EndSec
			}
			if next.StartSec < prev.StartSec {
				prev.StartSec = next.StartSec
			}
			continue
		}
		out = append(out, next)
	}
	return out
}

// shouldMerge decides whether next should be appended to prev instead
// of starting a new segment.
func shouldMerge(prev, next models.Segment, language Language, gapLimit float64) bool {
	if next.StartSec-prev.EndSec > gapLimit {
		return false
	}
	switch language {
	case LanguageChinese:
		return chineseShouldMerge(prev.Text)
	case LanguageJapanese:
		return japaneseShouldMerge(prev.Text)
	case LanguageKorean, LanguageEuropean, LanguageEnglish:
		return englishLikeShouldMerge(prev.Text)
	default:
		return englishLikeShouldMerge(prev.Text)
	}
}

func lastRune(s string) rune {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	r := []rune(s)
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}

func chineseShouldMerge(prevText string) bool {
	last := lastRune(prevText)
	if strings.ContainsRune("。！？；：", last) {
		return false
	}
	if strings.ContainsRune(",，、", last) {
		return true
	}
	return insideOpenQuote(prevText)
}

func japaneseShouldMerge(prevText string) bool {
	last := lastRune(prevText)
	if strings.ContainsRune("。！？", last) {
		return false
	}
	if last == '、' {
		return true
	}
	return false
}

func englishLikeShouldMerge(prevText string) bool {
	trimmed := strings.TrimRightFunc(prevText, unicode.IsSpace)
	last := lastRune(trimmed)

	if strings.ContainsRune("!?;:", last) {
		return false
	}
	if last == ',' {
		return true
	}
	if last == '.' {
		return endsInAbbreviation(trimmed)
	}
	return false
}

// endsInAbbreviation reports whether the last "word" before a trailing
// period is a known abbreviation (Mr, Dr, e.g, Ph.D, ...).
func endsInAbbreviation(trimmed string) bool {
	withoutPeriod := strings.TrimSuffix(trimmed, ".")
	fields := strings.Fields(withoutPeriod)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(fields[len(fields)-1])
	last = strings.TrimRight(last, ".,")
	return englishAbbreviations[last]
}

// insideOpenQuote reports whether prevText has an unmatched opening
// quotation mark, a crude heuristic: odd count of quote runes.
func insideOpenQuote(prevText string) bool {
	count := 0
	for _, r := range prevText {
		if r == '"' || r == '“' || r == '”' || r == '「' || r == '」' {
			count++
		}
	}
	return count%2 == 1
}

func joinTexts(segs []models.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// detectScript picks a Language by the dominant Unicode range in text,
// falling back to English when no CJK/Hangul runes are found.
func detectScript(text string) Language {
	var han, hiraganaKatakana, hangul int
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			hiraganaKatakana++
		case unicode.In(r, unicode.Hangul):
			hangul++
		case unicode.In(r, unicode.Han):
			han++
		}
	}
	switch {
	case hiraganaKatakana > 0:
		return LanguageJapanese
	case hangul > 0:
		return LanguageKorean
	case han > 0:
		return LanguageChinese
	default:
		return LanguageEnglish
	}
}
