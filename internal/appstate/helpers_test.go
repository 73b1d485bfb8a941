package appstate

import "encoding/json"

func (s *State) marshalForTest() ([]byte, error) {
	return json.Marshal(s)
}

func (s *State) unmarshalForTest(raw []byte) error {
	if err := json.Unmarshal(raw, s); err != nil {
		return err
	}
	s.ensureCollections()
	return nil
}
