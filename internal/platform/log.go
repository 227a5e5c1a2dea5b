package platform

import "github.com/sirupsen/logrus"

var log = logrus.WithField("component", "platform")
