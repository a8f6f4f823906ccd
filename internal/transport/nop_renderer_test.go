package transport

import "github.com/ashureev/shsh-chat/internal/domain"

type nopRenderer struct{}

func (nopRenderer) DisplayMessage(domain.Message)   {}
func (nopRenderer) SetTyping(bool)                  {}
func (nopRenderer) ShowTransientError(string)       {}
func (nopRenderer) RequestConfirmation(string) bool { return false }
func (nopRenderer) SaveExport([]byte, string) error { return nil }
func (nopRenderer) Focus()                          {}
