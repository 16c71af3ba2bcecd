package geocoder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lintang-b-s/osm-geocoder/pkg/datastructure"
	"golang.org/x/text/language"
)

// LanguageStrict mode bahasa: hanya feature yang punya nama dalam bahasa request yang dikembalikan.
const LanguageStrict = "strict"

var ErrBadLanguage = errors.New("invalid language")

// ParseLanguage validasi kode bahasa BCP 47 (id, en, zh-Hant). kode kosong berarti nama default.
func ParseLanguage(code string) (language.Tag, error) {
	if code == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return language.Und, fmt.Errorf("%w: %q is not a valid language code", ErrBadLanguage, code)
	}
	return tag, nil
}

// ValidateLanguage ErrBadLanguage kalau Language bukan kode BCP 47 atau LanguageMode tidak dikenal.
func (o Options) ValidateLanguage() error {
	_, _, err := o.language()
	return err
}

// language tag bahasa request dan apakah mode strict.
func (o Options) language() (language.Tag, bool, error) {
	tag, err := ParseLanguage(o.Language)
	if err != nil {
		return language.Und, false, err
	}
	switch o.LanguageMode {
	case "":
		return tag, false, nil
	case LanguageStrict:
		if tag == language.Und {
			return language.Und, false, fmt.Errorf("%w: language mode %q needs a language", ErrBadLanguage, o.LanguageMode)
		}
		return tag, true, nil
	}
	return language.Und, false, fmt.Errorf("%w: %q is not a valid language mode", ErrBadLanguage, o.LanguageMode)
}

// localizedNames nama feature dalam bahasa yang paling dekat ke want, beserta kode bahasanya.
// beda script (zh-Hans vs zh-Hant) tidak dianggap cocok.
func localizedNames(f datastructure.Feature, want language.Tag) ([]string, string, bool) {
	if want == language.Und || len(f.Languages) == 0 {
		return nil, "", false
	}
	codes := make([]string, 0, len(f.Languages))
	for code, names := range f.Languages {
		if len(names) > 0 {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	tags := make([]language.Tag, 0, len(codes))
	kept := make([]string, 0, len(codes))
	for _, code := range codes {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		kept = append(kept, code)
	}
	if len(tags) == 0 {
		return nil, "", false
	}

	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf < language.High {
		return nil, "", false
	}
	return f.Languages[kept[idx]], kept[idx], true
}

// displayText text tampilan feature, nama bahasa want kalau ada, selain itu Names[0].
func displayText(f datastructure.Feature, want language.Tag) (string, string) {
	if names, code, ok := localizedNames(f, want); ok {
		return names[0], code
	}
	return f.Text(), ""
}

func hasLanguage(f datastructure.Feature, want language.Tag) bool {
	_, _, ok := localizedNames(f, want)
	return ok
}
