// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"github.com/pkg/errors"
)

// Function names used in the t= query parameter.
const (
	FunctionCaps   = "caps"
	FunctionSearch = "search"
	FunctionTV     = "tvsearch"
	FunctionMovie  = "movie"
	FunctionMusic  = "music"
	FunctionBook   = "book"
)

// SearchFunction is one of Search, TVSearch, MovieSearch, MusicSearch or BookSearch.
type SearchFunction interface {
	// Function returns the t= value.
	Function() string
	// Capability returns the caps entry that gates this function.
	Capability() SearchCapability

	encode() (string, error)
	usedParams() []SupportedParam
}

// Search is a free text search.
type Search struct{}

func (Search) Function() string             { return FunctionSearch }
func (Search) Capability() SearchCapability { return CapabilitySearch }
func (Search) encode() (string, error)      { return "&t=" + FunctionSearch, nil }
func (Search) usedParams() []SupportedParam { return nil }

// TVSearch is a search with tv specific parameters.
type TVSearch struct {
	Params TVSearchParameters
}

func (TVSearch) Function() string             { return FunctionTV }
func (TVSearch) Capability() SearchCapability { return CapabilityTVSearch }

func (f TVSearch) encode() (string, error) {
	return "&t=" + FunctionTV + f.Params.Encode(), nil
}

func (f TVSearch) usedParams() []SupportedParam { return f.Params.usedParams() }

// MovieSearch is a search with movie specific parameters.
type MovieSearch struct {
	Params MovieSearchParameters
}

func (MovieSearch) Function() string             { return FunctionMovie }
func (MovieSearch) Capability() SearchCapability { return CapabilityMovieSearch }

func (f MovieSearch) encode() (string, error) {
	return "&t=" + FunctionMovie + f.Params.Encode(), nil
}

func (f MovieSearch) usedParams() []SupportedParam { return f.Params.usedParams() }

// MusicSearch has no parameter model yet; encoding it fails with ErrUnsupportedFunction.
type MusicSearch struct{}

func (MusicSearch) Function() string             { return FunctionMusic }
func (MusicSearch) Capability() SearchCapability { return CapabilityMusicSearch }

func (MusicSearch) encode() (string, error) {
	return "", errors.Wrap(ErrUnsupportedFunction, FunctionMusic)
}

func (MusicSearch) usedParams() []SupportedParam { return nil }

// BookSearch has no parameter model yet; encoding it fails with ErrUnsupportedFunction.
type BookSearch struct{}

func (BookSearch) Function() string             { return FunctionBook }
func (BookSearch) Capability() SearchCapability { return CapabilityBookSearch }

func (BookSearch) encode() (string, error) {
	return "", errors.Wrap(ErrUnsupportedFunction, FunctionBook)
}

func (BookSearch) usedParams() []SupportedParam { return nil }

// EncodeSearch builds the query fragment for fn followed by the generic parameters.
func EncodeSearch(fn SearchFunction, generic GenericSearchParameters) (string, error) {
	if fn == nil {
		return "", errors.New("nil search function")
	}
	fnParams, err := fn.encode()
	if err != nil {
		return "", err
	}
	return fnParams + generic.Encode(), nil
}

// CheckCapabilities verifies that caps advertise fn and every parameter set on
// fn or generic. Paging, category and attribute fields are not gated.
func CheckCapabilities(caps *Capabilities, fn SearchFunction, generic GenericSearchParameters) error {
	capability := fn.Capability()
	if !caps.DoesSupportSearch(capability) {
		return &CapabilityMismatchError{Capability: capability}
	}

	params := fn.usedParams()
	if generic.Query != nil {
		params = append(params, ParamQuery)
	}
	for _, param := range params {
		if !caps.DoesSearchSupportParam(capability, param) {
			return &CapabilityMismatchError{Capability: capability, Param: param}
		}
	}
	return nil
}
