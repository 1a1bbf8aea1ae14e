package websocket

// Inbound payloads arrive as decoded JSON: strings, float64 numbers and
// map[string]any objects. These helpers coerce and validate them so the
// event handlers stay thin.

func roomIDArg(datas []any) (string, bool) {
	if len(datas) == 0 {
		return "", false
	}

	roomID, ok := datas[0].(string)
	if !ok || roomID == "" {
		return "", false
	}
	return roomID, true
}

func pageArgs(datas []any) (roomID string, page int, ok bool) {
	payload, ok := payloadMap(datas)
	if !ok {
		return "", 0, false
	}

	roomID, _ = payload["roomId"].(string)
	page, pageOK := intField(payload, "pageNumber")
	if roomID == "" || !pageOK || page < 1 {
		return "", 0, false
	}
	return roomID, page, true
}

func scrollArgs(datas []any) (roomID string, scrollTop float64, ok bool) {
	payload, ok := payloadMap(datas)
	if !ok {
		return "", 0, false
	}

	roomID, _ = payload["roomId"].(string)
	scrollTop, scrollOK := floatField(payload, "scrollTop")
	if roomID == "" || !scrollOK {
		return "", 0, false
	}
	return roomID, scrollTop, true
}

func payloadMap(datas []any) (map[string]any, bool) {
	if len(datas) == 0 {
		return nil, false
	}

	payload, ok := datas[0].(map[string]any)
	if !ok {
		return nil, false
	}
	return payload, true
}

func intField(payload map[string]any, key string) (int, bool) {
	value, exists := payload[key]
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

func floatField(payload map[string]any, key string) (float64, bool) {
	value, exists := payload[key]
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
