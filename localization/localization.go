package localization

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
)

// ErrUnknownLanguage is returned for locale strings that are not language tags.
var ErrUnknownLanguage = errors.New("unknown language")

// DefaultLanguage is the fallback language of every bundle.
var DefaultLanguage = language.English

type contextKey string

func (c contextKey) String() string {
	return "msgcacheperf/localization/" + string(c)
}

const ctxKeyLanguage = contextKey("languageKey")

// ToContext adds language to the current supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts language from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

type Manager interface {
	Bundle() *i18n.Bundle
	// Languages lists the tags that have a message file loaded.
	Languages() []language.Tag
	// MessageKeys lists every message id available in locale, including the ids
	// inherited from the default language.
	MessageKeys(ctx context.Context, locale string) ([]string, error)
	// Lookup returns the text of messageID in locale, if the catalog defines it.
	Lookup(ctx context.Context, locale string, messageID string) (string, bool)
	Translate(ctx context.Context, request any, messageID string) string
}

type managerImpl struct {
	bundle *i18n.Bundle

	mu  sync.RWMutex
	ids map[language.Tag][]string
}

// NewManager loads messages.<lang>.toml from translationsFolder for each language.
func NewManager(translationsFolder string, languages ...string) (Manager, error) {
	if translationsFolder == "" {
		translationsFolder = "localization"
	}

	m := newManagerImpl()
	for _, lang := range languages {
		mf, err := m.bundle.LoadMessageFile(filepath.Join(translationsFolder, messageFileName(lang)))
		if err != nil {
			return nil, fmt.Errorf("load messages for %q: %w", lang, err)
		}
		m.track(mf)
	}

	return m, nil
}

// NewManagerFS is NewManager over a file system, typically an embed.FS.
func NewManagerFS(fsys fs.FS, dir string, languages ...string) (Manager, error) {
	m := newManagerImpl()
	for _, lang := range languages {
		mf, err := m.bundle.LoadMessageFileFS(fsys, path.Join(dir, messageFileName(lang)))
		if err != nil {
			return nil, fmt.Errorf("load messages for %q: %w", lang, err)
		}
		m.track(mf)
	}

	return m, nil
}

func newManagerImpl() *managerImpl {
	bundle := i18n.NewBundle(DefaultLanguage)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return &managerImpl{bundle: bundle, ids: map[language.Tag][]string{}}
}

func messageFileName(lang string) string {
	return fmt.Sprintf("messages.%v.toml", lang)
}

func (s *managerImpl) track(mf *i18n.MessageFile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range mf.Messages {
		s.ids[mf.Tag] = append(s.ids[mf.Tag], msg.ID)
	}
}

// Bundle Access the translation bundle instatiated in the system.
func (s *managerImpl) Bundle() *i18n.Bundle {
	return s.bundle
}

func (s *managerImpl) Languages() []language.Tag {
	return s.bundle.LanguageTags()
}

func (s *managerImpl) MessageKeys(_ context.Context, locale string) ([]string, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownLanguage, locale, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	var keys []string
	for _, t := range []language.Tag{tag, DefaultLanguage} {
		for _, id := range s.ids[t] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			keys = append(keys, id)
		}
	}

	slices.Sort(keys)
	return keys, nil
}

func (s *managerImpl) Lookup(ctx context.Context, locale string, messageID string) (string, bool) {
	localizer := i18n.NewLocalizer(s.bundle, locale)

	text, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) {
			util.Log(ctx).WithError(err).WithField("messageID", messageID).Warn("could not localize message")
		}
		return "", false
	}
	return text, true
}

// Translate performs a quick translation based on the supplied message id.
func (s *managerImpl) Translate(ctx context.Context, request any, messageID string) string {
	var languageSlice []string

	switch v := request.(type) {
	case *http.Request:
		languageSlice = ExtractLanguageFromHTTPRequest(v)
	case context.Context:
		languageSlice = FromContext(v)
	case string:
		languageSlice = []string{v}
	case []string:
		languageSlice = v
	default:
		util.Log(ctx).WithField("messageID", messageID).
			Warn("Translate -- no valid request object found, use string, []string, context or http.Request")
		return messageID
	}

	localizer := i18n.NewLocalizer(s.Bundle(), languageSlice...)

	text, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		util.Log(ctx).WithError(err).WithField("messageID", messageID).Debug("Translate -- could not perform translation")
		return messageID
	}

	return text
}

func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	lang := req.FormValue("lang")

	acceptedLang := ExtractLanguageFromHTTPHeader(req.Header)

	var languages []string
	if lang != "" {
		languages = append(languages, lang)
	}

	return append(languages, acceptedLang...)
}

func ExtractLanguageFromHTTPHeader(req http.Header) []string {
	acceptLanguageHeader := req.Get("Accept-Language")
	if acceptLanguageHeader == "" {
		return nil
	}

	var languages []string
	for _, part := range strings.Split(acceptLanguageHeader, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if tag = strings.TrimSpace(tag); tag != "" {
			languages = append(languages, tag)
		}
	}
	return languages
}
