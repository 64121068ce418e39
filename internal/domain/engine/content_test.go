package engine

import "testing"

func TestCleanContent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<pre>result</pre>", "result"},
		{"  plain answer \n", "plain answer"},
		{"intro <PRE>\n  10.0.0.1\n</PRE> outro", "10.0.0.1"},
		{"<pre>first</pre><pre>second</pre>", "first"},
		{"<pre>   </pre>", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := cleanContent(tt.in); got != tt.want {
			t.Errorf("cleanContent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
