package exchange

// TxSignatureFromResponse digs a transaction signature out of an
// exchange response. The venue nests the signature at varying depths
// depending on the action, so the search recurses.
func TxSignatureFromResponse(resp map[string]any) string {
	if resp == nil {
		return ""
	}
	return signatureFromAny(resp)
}

// ErrorFromResponse returns the venue-reported error string, if any.
// A present error means the action was rejected before execution.
func ErrorFromResponse(resp map[string]any) string {
	if resp == nil {
		return ""
	}
	if status, ok := resp["status"].(string); ok && status == "err" {
		if msg, ok := resp["response"].(string); ok {
			return msg
		}
		return "exchange rejected the action"
	}
	if msg, ok := resp["error"].(string); ok && msg != "" {
		return msg
	}
	return ""
}

func signatureFromAny(v any) string {
	switch val := v.(type) {
	case map[string]any:
		for _, key := range []string{"txSignature", "signature", "txHash", "sig"} {
			if s, ok := val[key].(string); ok && s != "" {
				return s
			}
		}
		for _, nested := range val {
			if s := signatureFromAny(nested); s != "" {
				return s
			}
		}
	case []any:
		for _, nested := range val {
			if s := signatureFromAny(nested); s != "" {
				return s
			}
		}
	}
	return ""
}
