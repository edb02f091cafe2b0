package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"already canonical", "colegio san jose", "colegio san jose"},
		{"diacritics stripped", "Usaquén", "usaquen"},
		{"punctuation collapsed", "San-Cristóbal (Sur)!", "san cristobal sur"},
		{"mixed whitespace", "  Colegio\t Distrital\n", "colegio distrital"},
		{"enye", "Antonio Nariño", "antonio narino"},
		{"digits kept", "Sede 2 - Bloque B", "sede 2 bloque b"},
		{"only punctuation", "-- !! --", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Usaquén", "COLEGIO San José!!", "  a  b  ", ""}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestTokenize(t *testing.T) {
	t.Run("drops stop words", func(t *testing.T) {
		tokens := Tokenize("Colegio Distrital de Usaquén", DefaultStopWords)
		assert.Equal(t, []string{"distrital", "usaquen"}, tokens)
	})

	t.Run("nil stop words keeps everything", func(t *testing.T) {
		tokens := Tokenize("Colegio de la Sede", nil)
		assert.Equal(t, []string{"colegio", "de", "la", "sede"}, tokens)
	})

	t.Run("order preserved", func(t *testing.T) {
		tokens := Tokenize("Norte Liceo Moderno", DefaultStopWords)
		assert.Equal(t, []string{"norte", "liceo", "moderno"}, tokens)
	})

	t.Run("blank input", func(t *testing.T) {
		assert.Empty(t, Tokenize("   ", DefaultStopWords))
	})
}

func TestTokenSet(t *testing.T) {
	t.Run("unique tokens", func(t *testing.T) {
		set := TokenSet("norte norte liceo", nil)
		assert.Len(t, set, 2)
		assert.Contains(t, set, "norte")
		assert.Contains(t, set, "liceo")
	})

	t.Run("falls back when stop words empty the set", func(t *testing.T) {
		// "la" and "sede" are both stop words; a name made entirely of them
		// must still produce tokens so it can match itself.
		set := TokenSet("La Sede", DefaultStopWords)
		assert.Len(t, set, 2)
		assert.Contains(t, set, "la")
		assert.Contains(t, set, "sede")
	})

	t.Run("blank input stays empty", func(t *testing.T) {
		assert.Empty(t, TokenSet("", DefaultStopWords))
	})
}

func TestFirstToken(t *testing.T) {
	assert.Equal(t, "juan", FirstToken("  Juan Pérez Gómez "))
	assert.Equal(t, "colegio", FirstToken("COLEGIO san jose"))
	assert.Equal(t, "", FirstToken("  "))
	assert.Equal(t, "", FirstToken(""))
}

func TestRegistry(t *testing.T) {
	t.Run("known normalizer applies", func(t *testing.T) {
		assert.Equal(t, "usaquen", Apply("Usaquén", "canonical"))
	})

	t.Run("unknown normalizer is identity", func(t *testing.T) {
		assert.Equal(t, "Usaquén", Apply("Usaquén", "does_not_exist"))
	})

	t.Run("chain applies in order", func(t *testing.T) {
		assert.Equal(t, "jose", ApplyChain("  José  ", "trim", "strip_accents", "lowercase"))
	})

	t.Run("get", func(t *testing.T) {
		fn, ok := Get("lowercase")
		assert.True(t, ok)
		assert.Equal(t, "abc", fn("ABC"))

		_, ok = Get("nope")
		assert.False(t, ok)
	})
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "juan@example.com", NormalizeEmail("  Juan@Example.COM "))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5731012345", NormalizePhone("+57 (310) 123-45"))
	assert.Equal(t, "", NormalizePhone("n/a"))
}
