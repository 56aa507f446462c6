package textindex

import (
	"reflect"
	"testing"
)

func TestTokenizeCamelCase(t *testing.T) {
	got := Tokenize("getUserName")
	want := []string{"getusername", "get", "user", "name"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(getUserName) = %v, want %v", got, want)
	}
}

func TestTokenizeAcronym(t *testing.T) {
	got := Tokenize("HTTPServer")
	want := []string{"httpserver", "http", "server"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(HTTPServer) = %v, want %v", got, want)
	}
}

func TestTokenizeSnakeCase(t *testing.T) {
	got := Tokenize("parse_config_file")
	want := []string{"parse_config_file", "parse", "config", "file"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(parse_config_file) = %v, want %v", got, want)
	}
}

func TestTokenizeDigits(t *testing.T) {
	got := Tokenize("user2name")
	want := []string{"user2name", "user", "2", "name"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(user2name) = %v, want %v", got, want)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Errorf("Tokenize(\"\") = %v, want empty", got)
	}
	if got := Tokenize("!!! ... ###"); len(got) != 0 {
		t.Errorf("Tokenize(punctuation) = %v, want empty", got)
	}
}

func TestTokenizeLowercasesPlainWords(t *testing.T) {
	got := Tokenize("The Quick fox")
	want := []string{"the", "quick", "fox"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	a := Tokenize("validateJSONPayload retry_count")
	b := Tokenize("validateJSONPayload retry_count")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Tokenize not deterministic: %v vs %v", a, b)
	}
}
