package cryptocompare

import "encoding/json"

const responseError = "Error"

type topListResponse struct {
	Response string     `json:"Response"`
	Message  string     `json:"Message"`
	Data     []topEntry `json:"Data"`
}

type topEntry struct {
	CoinInfo struct {
		Name     string `json:"Name"`
		FullName string `json:"FullName"`
	} `json:"CoinInfo"`
}

type histodayResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		TimeFrom int64    `json:"TimeFrom"`
		TimeTo   int64    `json:"TimeTo"`
		Data     []dayBar `json:"Data"`
	} `json:"Data"`
}

// UnmarshalJSON tolerates the empty array CryptoCompare sends as Data on errors.
func (r *histodayResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Response string          `json:"Response"`
		Message  string          `json:"Message"`
		Data     json.RawMessage `json:"Data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Response, r.Message = raw.Response, raw.Message
	if len(raw.Data) == 0 || raw.Data[0] != '{' {
		return nil
	}
	return json.Unmarshal(raw.Data, &r.Data)
}

type dayBar struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	VolumeFrom float64 `json:"volumefrom"`
	VolumeTo   float64 `json:"volumeto"`
}

// empty reports a pre-listing bar, which CryptoCompare pads with zeros.
func (b dayBar) empty() bool {
	return b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0
}
