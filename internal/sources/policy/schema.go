package policy

// File is the on-disk shape of the policy file:
//
//	forward:
//	  max_redirects: 5
//	  ignored_headers: [Content-Length, Content-Encoding, Set-Cookie]
//	  dial_timeout: 5s
//	  response_header_timeout: 20s
//
// Every field is optional; absent fields keep the environment configuration.
type File struct {
	Forward ForwardSection `yaml:"forward"`
}

type ForwardSection struct {
	MaxRedirects          *int     `yaml:"max_redirects"`
	IgnoredHeaders        []string `yaml:"ignored_headers"`
	DialTimeout           string   `yaml:"dial_timeout"`
	ResponseHeaderTimeout string   `yaml:"response_header_timeout"`
}
