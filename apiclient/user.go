package apiclient

import "encoding/json"

// UnmarshalJSON keeps unknown profile fields in Extra.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User{}
	for k, v := range raw {
		switch k {
		case "id":
			u.ID, _ = v.(string)
		case "email":
			u.Email, _ = v.(string)
		case "name":
			u.Name, _ = v.(string)
		default:
			if u.Extra == nil {
				u.Extra = make(map[string]any)
			}
			u.Extra[k] = v
		}
	}
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+3)
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	out["email"] = u.Email
	out["name"] = u.Name
	return json.Marshal(out)
}
