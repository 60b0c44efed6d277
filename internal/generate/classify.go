package generate

import (
	"errors"
	"slices"
	"strings"

	"github.com/spachava753/fieldgen/internal/modelcatalog"
)

// RejectionReason tells the retry loop which request parameter, if any, the
// provider refused.
type RejectionReason int

const (
	RejectionOther RejectionReason = iota
	RejectionTokenParam
	RejectionTemperature
)

func (r RejectionReason) String() string {
	switch r {
	case RejectionTokenParam:
		return "token_param_rejected"
	case RejectionTemperature:
		return "temperature_rejected"
	}
	return "other"
}

var rejectionMarkers = []string{
	"unsupported",
	"not supported",
	"does not support",
	"unrecognized",
	"unknown parameter",
	"invalid parameter",
	"not allowed",
	"only the default",
}

// rejectionCodes are provider error codes meaning the parameter itself, not
// its value, was refused.
var rejectionCodes = []string{
	"unsupported_parameter",
	"unknown_parameter",
	"unsupported_value",
}

// Classify decides whether err is the provider refusing a parameter of req.
//
// A structured ProviderError naming the parameter counts only together with a
// rejection code or rejection wording; errors about a value that is out of
// range name the parameter too and are left alone. Without a structured
// error the message is matched against known wording, which is heuristic and
// will miss providers that phrase rejections differently.
func Classify(err error, req ChatRequest) RejectionReason {
	if err == nil {
		return RejectionOther
	}
	msg := strings.ToLower(err.Error())

	var perr *ProviderError
	if errors.As(err, &perr) && perr.Param != "" {
		if !slices.Contains(rejectionCodes, strings.ToLower(perr.Code)) && !containsAny(msg, rejectionMarkers) {
			return RejectionOther
		}
		switch modelcatalog.TokenParam(strings.ToLower(perr.Param)) {
		case modelcatalog.TokenParamMaxTokens, modelcatalog.TokenParamMaxCompletionTokens:
			return RejectionTokenParam
		}
		if strings.EqualFold(perr.Param, "temperature") && req.Temperature != nil {
			return RejectionTemperature
		}
		return RejectionOther
	}

	if !containsAny(msg, rejectionMarkers) {
		return RejectionOther
	}
	if strings.Contains(msg, string(req.TokenParam)) || strings.Contains(msg, string(req.TokenParam.Other())) {
		return RejectionTokenParam
	}
	if strings.Contains(msg, "temperature") && req.Temperature != nil {
		return RejectionTemperature
	}
	return RejectionOther
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
