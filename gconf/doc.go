/*
Package gconf provides a toolset for managing an extension configuration.

Extension configuration is a single object stored in the database under a
key derived from the extension name. It is initialized from the genesis
file, from the "conf" section:

	{
	  "conf": {
	    "msig": {"native_ticker": "IOV", "address_prefix": "iov"}
	  }
	}

Handlers load it with Load every time they need it. Configuration is part of
the state, so it is covered by the same savepoints as any other data.
*/
package gconf
